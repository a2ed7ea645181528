// Package dirstore serializes a directory as an ordered sequence of
// directory entries into a chain of data blocks, and reads it back given a
// recorded byte length. It knows nothing about paths, parents, or the
// namespace tree — that is the engine's job.
package dirstore

import (
	"fmt"

	"imgfs/internal/fat"
	"imgfs/internal/wire"
)

// Entry is one directory entry, serialized in this field order:
// isDirectory, name, size, canRead, canWrite, created, lastModified,
// firstBlockAddress.
type Entry struct {
	IsDirectory       bool
	Name              string
	Size              int16
	CanRead           bool
	CanWrite          bool
	Created           int64
	LastModified      int64
	FirstBlockAddress int16
}

func encodeEntry(enc *wire.Encoder, e Entry) {
	enc.WriteBool(e.IsDirectory)
	enc.WriteString(e.Name)
	enc.WriteI16(e.Size)
	enc.WriteBool(e.CanRead)
	enc.WriteBool(e.CanWrite)
	enc.WriteI64(e.Created)
	enc.WriteI64(e.LastModified)
	enc.WriteI16(e.FirstBlockAddress)
}

func decodeEntry(dec *wire.Decoder) (Entry, error) {
	var e Entry
	var err error
	if e.IsDirectory, err = dec.ReadBool(); err != nil {
		return e, err
	}
	if e.Name, err = dec.ReadString(); err != nil {
		return e, err
	}
	if e.Size, err = dec.ReadI16(); err != nil {
		return e, err
	}
	if e.CanRead, err = dec.ReadBool(); err != nil {
		return e, err
	}
	if e.CanWrite, err = dec.ReadBool(); err != nil {
		return e, err
	}
	if e.Created, err = dec.ReadI64(); err != nil {
		return e, err
	}
	if e.LastModified, err = dec.ReadI64(); err != nil {
		return e, err
	}
	if e.FirstBlockAddress, err = dec.ReadI16(); err != nil {
		return e, err
	}
	return e, nil
}

// Encode serializes entries in order into a single byte buffer.
func Encode(entries []Entry) []byte {
	enc := wire.NewEncoder()
	for _, e := range entries {
		encodeEntry(enc, e)
	}
	return enc.Bytes()
}

// Decode deserializes entries from buf until size bytes have been
// consumed.
func Decode(buf []byte, size int16) ([]Entry, error) {
	dec := wire.NewDecoder(buf)
	var entries []Entry
	for dec.Offset() < int(size) {
		e, err := decodeEntry(dec)
		if err != nil {
			return nil, fmt.Errorf("dirstore: decode entry at offset %d: %w", dec.Offset(), err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Store writes and reads directory chains via a fat.Table.
type Store struct {
	fat *fat.Table
}

// New returns a Store backed by table.
func New(table *fat.Table) *Store {
	return &Store{fat: table}
}

// WriteChain serializes entries and writes them to the chain currently
// rooted at currentFirstBlock (fat.EndOfChain if none), returning the new
// first block address and the serialized byte length.
func (s *Store) WriteChain(currentFirstBlock int16, entries []Entry) (firstBlock int16, size int16, err error) {
	buf := Encode(entries)
	if len(buf) > 1<<15-1 {
		return fat.EndOfChain, 0, fmt.Errorf("dirstore: serialized directory is %d bytes, exceeds the 32767-byte size field", len(buf))
	}
	first, err := s.fat.WriteChain(currentFirstBlock, buf)
	if err != nil {
		return fat.EndOfChain, 0, err
	}
	return first, int16(len(buf)), nil
}

// ReadChain reads and deserializes the directory chain rooted at
// firstBlock, whose serialized length is size bytes.
func (s *Store) ReadChain(firstBlock int16, size int16) ([]Entry, error) {
	buf, err := s.fat.ReadChain(firstBlock)
	if err != nil {
		return nil, err
	}
	return Decode(buf, size)
}
