//go:build unix

package hostfile

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// lock holds an advisory exclusive lock on the image file, giving the
// single-writer model in spec.md §5 some protection against a second
// process opening the same image concurrently. It is best-effort: it does
// not make the engine itself reentrant or safe for concurrent callers
// within one process.
type lock struct {
	f *os.File
}

func lockFile(f *os.File) (*lock, error) {
	flock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(io.SeekStart),
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLK, &flock); err != nil {
		return nil, err
	}
	return &lock{f: f}, nil
}

func (l *lock) unlock() {
	flock := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: int16(io.SeekStart),
		Start:  0,
		Len:    0,
	}
	unix.FcntlFlock(l.f.Fd(), unix.F_SETLK, &flock)
}
