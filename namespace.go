package imgfs

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"imgfs/internal/dirstore"
	"imgfs/internal/fat"
	"imgfs/internal/fserr"
)

const maxEntrySize = 1<<15 - 1

// WriteAttributes replaces path's attributes with attrs.
func (e *Engine) WriteAttributes(path string, attrs Attributes) error {
	if err := validatePath(path); err != nil {
		return err
	}
	entry, err := e.readDirectoryEntry(path)
	if err != nil {
		return err
	}
	entry.IsDirectory = attrs.IsDirectory
	entry.Name = attrs.Name
	entry.Size = attrs.Size
	entry.CanRead = attrs.CanRead
	entry.CanWrite = attrs.CanWrite
	entry.Created = attrs.Created
	entry.LastModified = attrs.LastModified
	return e.writeDirectoryEntry(path, entry)
}

// ReadAttributes returns path's attributes.
func (e *Engine) ReadAttributes(path string) (Attributes, error) {
	if err := validatePath(path); err != nil {
		return Attributes{}, err
	}
	entry, err := e.readDirectoryEntry(path)
	if err != nil {
		return Attributes{}, err
	}
	return attrsOf(entry), nil
}

// CreateDirectory creates an empty directory at path.
func (e *Engine) CreateDirectory(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	parent := parentPath(path)
	if err := e.checkPermission(parent, permWrite); err != nil {
		return err
	}

	entries, err := e.readDirectoryEntries(parent)
	if err != nil {
		return err
	}
	nm := name(path)
	for _, en := range entries {
		if en.Name == nm {
			return fserr.New(fserr.FileExists, path)
		}
	}

	now := nowNano()
	entries = append(entries, dirstore.Entry{
		IsDirectory:       true,
		Name:              nm,
		CanRead:           true,
		CanWrite:          true,
		Created:           now,
		LastModified:      now,
		FirstBlockAddress: fat.EndOfChain,
	})

	if _, err := e.writeDirectoryEntries(parent, entries, true); err != nil {
		return err
	}
	e.log.WithField("path", path).Info("created directory")
	return nil
}

// ListDirectory requires read access to path. If path names a file, it
// returns a single-element slice with that file's attributes; otherwise it
// returns the attributes of each child, in stored order.
func (e *Engine) ListDirectory(path string) ([]Attributes, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	if err := e.checkPermission(path, permRead); err != nil {
		return nil, err
	}

	attrs, err := e.ReadAttributes(path)
	if err != nil {
		return nil, err
	}
	if !attrs.IsDirectory {
		return []Attributes{attrs}, nil
	}

	entries, err := e.readDirectoryEntries(path)
	if err != nil {
		return nil, err
	}
	out := make([]Attributes, len(entries))
	for i, en := range entries {
		out[i] = attrsOf(en)
	}
	return out, nil
}

// DeleteDirectory requires write access to path, then recursively deletes
// its children before freeing its own chain and removing its entry from
// its parent.
func (e *Engine) DeleteDirectory(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if err := e.checkPermission(path, permWrite); err != nil {
		return err
	}

	self, err := e.readDirectoryEntries(path)
	if err != nil {
		return err
	}
	for _, en := range self {
		if en.IsDirectory {
			if err := e.DeleteDirectory(joinPath(path, en.Name)); err != nil {
				return err
			}
		} else if err := e.fat.FreeChain(en.FirstBlockAddress); err != nil {
			return wrapIO(joinPath(path, en.Name), err)
		}
	}

	own, err := e.readDirectoryEntry(path)
	if err != nil {
		return err
	}
	if err := e.fat.FreeChain(own.FirstBlockAddress); err != nil {
		return wrapIO(path, err)
	}

	parent := parentPath(path)
	entries, err := e.readDirectoryEntries(parent)
	if err != nil {
		return err
	}
	nm := name(path)
	for i, en := range entries {
		if en.Name == nm {
			entries = append(entries[:i], entries[i+1:]...)
			if _, err := e.writeDirectoryEntries(parent, entries, true); err != nil {
				return err
			}
			e.log.WithField("path", path).Info("deleted directory")
			return nil
		}
	}
	return fserr.New(fserr.NoSuchFileOrDirectory, path)
}

// WriteFile writes data to path, creating it (and requiring write access
// to its parent) if it does not already exist, or overwriting it (and
// requiring it be a writable file) if it does.
func (e *Engine) WriteFile(path string, data []byte) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if len(data) > maxEntrySize {
		return fmt.Errorf("imgfs: %s: content is %d bytes, exceeds the %d-byte size field", path, len(data), maxEntrySize)
	}

	entry, err := e.readDirectoryEntry(path)
	if err == nil {
		if entry.IsDirectory {
			return fserr.New(fserr.IsADirectory, path)
		}
		if !entry.CanWrite {
			return fserr.New(fserr.Permission, path)
		}

		first, werr := e.fat.WriteChain(entry.FirstBlockAddress, data)
		if werr != nil {
			return wrapIO(path, werr)
		}
		entry.FirstBlockAddress = first
		entry.Size = int16(len(data))
		entry.LastModified = nowNano()
		if err := e.writeDirectoryEntry(path, entry); err != nil {
			return err
		}
		e.log.WithField("path", path).Info("wrote file")
		return nil
	}

	var fe *fserr.Error
	if !errors.As(err, &fe) || fe.Kind != fserr.NoSuchFileOrDirectory {
		return err
	}

	parent := parentPath(path)
	if err := e.checkPermission(parent, permWrite); err != nil {
		return err
	}
	entries, err := e.readDirectoryEntries(parent)
	if err != nil {
		return err
	}
	nm := name(path)
	for _, en := range entries {
		if en.Name == nm {
			return fserr.New(fserr.FileExists, path)
		}
	}

	first, err := e.fat.WriteChain(fat.EndOfChain, data)
	if err != nil {
		return wrapIO(path, err)
	}

	now := nowNano()
	entries = append(entries, dirstore.Entry{
		IsDirectory:       false,
		Name:              nm,
		Size:              int16(len(data)),
		CanRead:           true,
		CanWrite:          true,
		Created:           now,
		LastModified:      now,
		FirstBlockAddress: first,
	})
	if _, err := e.writeDirectoryEntries(parent, entries, true); err != nil {
		return err
	}
	e.log.WithField("path", path).Info("created file")
	return nil
}

// ReadFile requires path be a readable file and returns its content,
// trimmed to its recorded size.
func (e *Engine) ReadFile(path string) ([]byte, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	entry, err := e.readDirectoryEntry(path)
	if err != nil {
		return nil, err
	}
	if entry.IsDirectory {
		return nil, fserr.New(fserr.IsADirectory, path)
	}
	if !entry.CanRead {
		return nil, fserr.New(fserr.Permission, path)
	}

	data, err := e.fat.ReadChain(entry.FirstBlockAddress)
	if err != nil {
		return nil, wrapIO(path, err)
	}
	if int(entry.Size) > len(data) {
		return nil, fmt.Errorf("imgfs: %s: recorded size %d exceeds chain length %d", path, entry.Size, len(data))
	}
	return data[:entry.Size], nil
}

// DeleteFile requires path be a writable file, frees its chain, and
// removes its entry from its parent.
func (e *Engine) DeleteFile(path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	entry, err := e.readDirectoryEntry(path)
	if err != nil {
		return err
	}
	if entry.IsDirectory {
		return fserr.New(fserr.IsADirectory, path)
	}
	if !entry.CanWrite {
		return fserr.New(fserr.Permission, path)
	}
	if err := e.fat.FreeChain(entry.FirstBlockAddress); err != nil {
		return wrapIO(path, err)
	}

	parent := parentPath(path)
	entries, err := e.readDirectoryEntries(parent)
	if err != nil {
		return err
	}
	nm := name(path)
	for i, en := range entries {
		if en.Name == nm {
			entries = append(entries[:i], entries[i+1:]...)
			if _, err := e.writeDirectoryEntries(parent, entries, true); err != nil {
				return err
			}
			e.log.WithField("path", path).Info("deleted file")
			return nil
		}
	}
	return fserr.New(fserr.NoSuchFileOrDirectory, path)
}

// ParseChmod decodes a chmod mode string: a sequence of '+'/'-' signs and
// 'r'/'w' flags, where a sign stays in effect for every flag that follows
// it until the next sign. The string must start with a sign. "+rw" sets
// both bits under one sign; "+r-r" ends up clearing read; "+" alone is a
// valid no-op. read/write are nil when the mode string never mentions that
// flag.
func ParseChmod(mode string) (read, write *bool, err error) {
	if len(mode) == 0 || (mode[0] != '+' && mode[0] != '-') {
		return nil, nil, fserr.New(fserr.InvalidMode, mode)
	}
	add := false
	for _, c := range mode {
		switch c {
		case '+':
			add = true
		case '-':
			add = false
		case 'r':
			v := add
			read = &v
		case 'w':
			v := add
			write = &v
		default:
			return nil, nil, fserr.New(fserr.InvalidMode, mode)
		}
	}
	return read, write, nil
}

// Chmod applies a chmod mode string (see ParseChmod) to path's permission
// bits. Applying the same mode twice is idempotent.
func (e *Engine) Chmod(path string, mode string) error {
	read, write, err := ParseChmod(mode)
	if err != nil {
		return err
	}
	attrs, err := e.ReadAttributes(path)
	if err != nil {
		return err
	}
	if read != nil {
		attrs.CanRead = *read
	}
	if write != nil {
		attrs.CanWrite = *write
	}
	if err := e.WriteAttributes(path, attrs); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"path": path, "mode": mode}).Info("changed permissions")
	return nil
}
