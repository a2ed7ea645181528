// Package imgfs implements a small FAT-style filesystem stored inside a
// single host file. It provides a hierarchical namespace of directories and
// files with per-entry read/write permission bits and timestamps, backed by
// a File Allocation Table kept resident in memory and persisted as ordinary
// data blocks on the image.
//
// The engine is single-threaded and not reentrant: every exported method
// runs to completion synchronously and callers must not invoke it
// concurrently from more than one goroutine. SafeEngine offers a
// mutex-guarded wrapper for callers that need that guarantee at the
// process boundary.
package imgfs

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"imgfs/internal/block"
	"imgfs/internal/dirstore"
	"imgfs/internal/fat"
	"imgfs/internal/fserr"
	"imgfs/internal/sector"
	"imgfs/internal/superblock"
)

// Engine is one open imgfs image: a superblock, an in-memory FAT, and the
// sector device backing both.
type Engine struct {
	dev  sector.Device
	io   *block.IO
	fat  *fat.Table
	dirs *dirstore.Store
	sb   *superblock.Superblock
	log  *logrus.Entry
}

func logEntry(log *logrus.Logger) *logrus.Entry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("component", "imgfs")
}

// Format initializes a new, empty image on dev: it zeroes the FAT, pins the
// FAT-backing blocks END-OF-CHAIN, creates the root container holding the
// single "/" entry, and persists the superblock and FAT.
func Format(dev sector.Device, blockSize uint16, log *logrus.Logger) (*Engine, error) {
	if !block.IsValidSize(blockSize) {
		return nil, fmt.Errorf("imgfs: invalid block size %d", blockSize)
	}

	io := block.New(dev, blockSize)
	tbl := fat.New(io, log)
	dirs := dirstore.New(tbl)

	now := nowNano()
	root := dirstore.Entry{
		IsDirectory:       true,
		Name:              "/",
		CanRead:           true,
		CanWrite:          true,
		Created:           now,
		LastModified:      now,
		FirstBlockAddress: fat.EndOfChain,
	}

	// The root container's block must land at io.DataAddress(), the fixed
	// slot every later rewrite hints at. Using fat.EndOfChain as the hint
	// here (rather than the data address itself) is deliberate: the data
	// address block is still FREE at this point, and freeing a FREE block
	// through the generic hint-reuse path would misread FAT entry 0 as the
	// next link. A fresh scan starting at dataAddress finds that same block
	// as its first FREE candidate, so the outcome is identical without the
	// hazard.
	first, size, err := dirs.WriteChain(fat.EndOfChain, []dirstore.Entry{root})
	if err != nil {
		return nil, wrapIO("/", err)
	}
	if int(first) != io.DataAddress() {
		return nil, fmt.Errorf("imgfs: root container landed at block %d, want %d", first, io.DataAddress())
	}

	sb := &superblock.Superblock{
		PartitionID:            superblock.PartitionID,
		BlockSize:              blockSize,
		RootDirectoryEntrySize: size,
	}
	if err := sb.Write(dev); err != nil {
		return nil, wrapIO("/", err)
	}

	e := &Engine{dev: dev, io: io, fat: tbl, dirs: dirs, sb: sb, log: logEntry(log)}
	e.log.WithField("blockSize", blockSize).Info("formatted image")
	return e, nil
}

// Open reads an existing image's superblock and FAT from dev.
func Open(dev sector.Device, log *logrus.Logger) (*Engine, error) {
	sb, err := superblock.Read(dev)
	if err != nil {
		return nil, wrapIO("", err)
	}
	if sb.PartitionID != superblock.PartitionID {
		return nil, fmt.Errorf("imgfs: unrecognized partition id %d", sb.PartitionID)
	}
	if !block.IsValidSize(sb.BlockSize) {
		return nil, fmt.Errorf("imgfs: image reports invalid block size %d", sb.BlockSize)
	}

	io := block.New(dev, sb.BlockSize)
	tbl, err := fat.Load(io, log)
	if err != nil {
		return nil, wrapIO("", err)
	}

	e := &Engine{dev: dev, io: io, fat: tbl, dirs: dirstore.New(tbl), sb: sb, log: logEntry(log)}
	return e, nil
}

// Close releases the underlying device, if it implements io.Closer.
func (e *Engine) Close() error {
	if c, ok := e.dev.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// BlockSize returns the image's configured block size.
func (e *Engine) BlockSize() uint16 { return e.io.BlockSize() }

// Stats reports block accounting for the image, derived from the
// in-memory FAT.
type Stats struct {
	TotalBlocks int
	FreeBlocks  int
	BlockSize   uint16
	FreeBytes   int64
}

// Stats returns current free-space accounting.
func (e *Engine) Stats() Stats {
	s := e.fat.Stats()
	return Stats{
		TotalBlocks: s.TotalBlocks,
		FreeBlocks:  s.FreeBlocks,
		BlockSize:   s.BlockSize,
		FreeBytes:   int64(s.FreeBlocks) * int64(s.BlockSize),
	}
}

// Attributes is the externally visible half of a directory entry: its
// block address is an implementation detail the namespace API never
// exposes.
type Attributes struct {
	IsDirectory  bool
	Name         string
	Size         int16
	CanRead      bool
	CanWrite     bool
	Created      int64
	LastModified int64
}

func attrsOf(e dirstore.Entry) Attributes {
	return Attributes{
		IsDirectory:  e.IsDirectory,
		Name:         e.Name,
		Size:         e.Size,
		CanRead:      e.CanRead,
		CanWrite:     e.CanWrite,
		Created:      e.Created,
		LastModified: e.LastModified,
	}
}

type permission int

const (
	permRead permission = iota
	permWrite
)

// wrapIO turns a lower-layer storage error (block I/O, chain encode/decode,
// superblock I/O) into an *fserr.Error carrying path, preserving the cause
// via Unwrap. Errors already reported as *fserr.Error (e.g. FilesystemFull)
// pass through unchanged.
func wrapIO(path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *fserr.Error
	if errors.As(err, &fe) {
		return err
	}
	return fserr.Wrap(fserr.IOFailure, path, err)
}

// checkPermission enforces read/write bits on path. The root container
// (path == "") has no attributes of its own and bypasses the check.
func (e *Engine) checkPermission(path string, perm permission) error {
	if path == "" {
		return nil
	}
	entry, err := e.readDirectoryEntry(path)
	if err != nil {
		return err
	}
	if perm == permRead && !entry.CanRead {
		return fserr.New(fserr.Permission, path)
	}
	if perm == permWrite && !entry.CanWrite {
		return fserr.New(fserr.Permission, path)
	}
	return nil
}
