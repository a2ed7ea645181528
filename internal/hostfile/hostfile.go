// Package hostfile implements the sector.Device interface over an ordinary
// host file: this is the "disk image" the rest of imgfs treats as its
// storage medium. It is the raw sector read/write wrapper spec.md calls an
// external collaborator, given a concrete Go implementation because there
// is no OS-provided block device abstraction to delegate to here.
package hostfile

import (
	"fmt"
	"os"

	"imgfs/internal/sector"
)

// File is a sector.Device backed by a single host file opened for random
// binary access. All I/O happens in whole sectors; no partial-sector reads
// or writes are permitted.
type File struct {
	f       *os.File
	lock    *lock
	sectors int
}

// Create truncates (or creates) path to exactly sectors sectors and returns
// a File ready for use.
func Create(path string, sectors int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("hostfile: create %s: %w", path, err)
	}
	if err := f.Truncate(int64(sectors) * sector.Size); err != nil {
		f.Close()
		return nil, fmt.Errorf("hostfile: truncate %s: %w", path, err)
	}
	l, err := lockFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hostfile: lock %s: %w", path, err)
	}
	return &File{f: f, lock: l, sectors: sectors}, nil
}

// Open opens an existing image at path without truncation. sectors is the
// number of sectors the caller expects the file to hold; Open does not
// verify the file's actual size against it beyond what ReadSector/
// WriteSector enforce per call.
func Open(path string, sectors int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("hostfile: open %s: %w", path, err)
	}
	l, err := lockFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("hostfile: lock %s: %w", path, err)
	}
	return &File{f: f, lock: l, sectors: sectors}, nil
}

func (h *File) SectorCount() int { return h.sectors }

func (h *File) ReadSector(i int) ([]byte, error) {
	if i < 0 || i >= h.sectors {
		return nil, &sector.ErrOutOfRange{Index: i, Count: h.sectors}
	}
	buf := make([]byte, sector.Size)
	if _, err := h.f.ReadAt(buf, int64(i)*sector.Size); err != nil {
		return nil, fmt.Errorf("hostfile: read sector %d: %w", i, err)
	}
	return buf, nil
}

func (h *File) WriteSector(i int, data []byte) error {
	if i < 0 || i >= h.sectors {
		return &sector.ErrOutOfRange{Index: i, Count: h.sectors}
	}
	if len(data) != sector.Size {
		return &sector.ErrBadSize{Got: len(data)}
	}
	if _, err := h.f.WriteAt(data, int64(i)*sector.Size); err != nil {
		return fmt.Errorf("hostfile: write sector %d: %w", i, err)
	}
	return nil
}

// Close releases the advisory lock and closes the underlying file.
func (h *File) Close() error {
	if h.lock != nil {
		h.lock.unlock()
	}
	return h.f.Close()
}
