// Package fserr defines the named failure kinds the imgfs engine reports,
// each annotated with the path that triggered it. Callers use errors.As to
// recover a *fserr.Error and inspect its Kind, or errors.Is against an
// *Error built with New, which matches on Kind alone (see Error.Is).
package fserr

import "fmt"

// Kind identifies the category of an engine failure.
type Kind int

const (
	// NoSuchFileOrDirectory: the resolver did not find a path component.
	NoSuchFileOrDirectory Kind = iota
	// NotADirectory: a non-final path component (or a listing target) is a file.
	NotADirectory
	// IsADirectory: a file-only operation was invoked on a directory.
	IsADirectory
	// FileExists: mkdir's target name already exists in the parent.
	FileExists
	// Permission: the requested access bit is not set on the entry.
	Permission
	// InvalidMode: a chmod mode string was malformed.
	InvalidMode
	// FilesystemFull: the allocator exhausted the FAT without finding a free block.
	FilesystemFull
	// IOFailure: a lower-layer storage operation (block read/write,
	// superblock or chain encode/decode) failed.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case NoSuchFileOrDirectory:
		return "no such file or directory"
	case NotADirectory:
		return "not a directory"
	case IsADirectory:
		return "is a directory"
	case FileExists:
		return "file exists"
	case Permission:
		return "permission denied"
	case InvalidMode:
		return "invalid mode"
	case FilesystemFull:
		return "filesystem full"
	case IOFailure:
		return "i/o failure"
	default:
		return "unknown error"
	}
}

// Error is the concrete error type every engine failure is reported as.
type Error struct {
	Kind Kind
	Path string
	// Err, if non-nil, is a lower-layer error (e.g. host I/O) preserved
	// in the chain via Unwrap.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, fserr.New(fserr.FileExists, "")) style checks work
// regardless of Path or wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New returns an *Error of the given kind for path.
func New(kind Kind, path string) *Error {
	return &Error{Kind: kind, Path: path}
}

// Wrap returns an *Error of the given kind for path, wrapping a lower-layer
// cause.
func Wrap(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
