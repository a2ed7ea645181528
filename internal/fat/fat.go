package fat

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"imgfs/internal/block"
	"imgfs/internal/fserr"
	"imgfs/internal/wire"
)

// Reserved FAT entry values.
const (
	Free       int16 = 0
	EndOfChain int16 = -1
)

// NumEntries is the fixed FAT length: exactly block.NumBlocks entries,
// regardless of block size.
const NumEntries = block.NumBlocks

// Table is the in-memory File Allocation Table for one open image.
type Table struct {
	entries [NumEntries]int16
	io      *block.IO
	log     *logrus.Entry
}

func logEntry(log *logrus.Logger) *logrus.Entry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("component", "fat")
}

// New returns a Table with every entry FREE except the blocks reserved for
// the FAT itself ([0, io.DataAddress())), which are pinned to EndOfChain
// per spec.md's invariant that FAT-backing blocks are never allocatable.
// It does not persist anything; call Persist to write it out.
func New(io *block.IO, log *logrus.Logger) *Table {
	t := &Table{io: io, log: logEntry(log)}
	t.pinReservedBlocks()
	return t
}

func (t *Table) pinReservedBlocks() {
	for i := 0; i < t.io.DataAddress(); i++ {
		t.entries[i] = EndOfChain
	}
}

// Load reads the FAT's serialized form back from blocks [0, DataAddress())
// of the image into a new Table.
func Load(io *block.IO, log *logrus.Logger) (*Table, error) {
	t := &Table{io: io, log: logEntry(log)}

	need := NumEntries * 2
	buf := make([]byte, 0, need)
	for b := 0; b < io.DataAddress(); b++ {
		blk, err := io.ReadBlock(b)
		if err != nil {
			return nil, fmt.Errorf("fat: load block %d: %w", b, err)
		}
		buf = append(buf, blk...)
	}

	dec := wire.NewDecoder(buf)
	for i := 0; i < NumEntries; i++ {
		v, err := dec.ReadI16()
		if err != nil {
			return nil, fmt.Errorf("fat: decode entry %d: %w", i, err)
		}
		t.entries[i] = v
	}
	return t, nil
}

// Persist writes the table's entries to blocks [0, DataAddress()) of the
// image, zero-padding the final block to a whole block size.
func (t *Table) Persist() error {
	enc := wire.NewEncoder()
	for _, e := range t.entries {
		enc.WriteI16(e)
	}
	buf := enc.Bytes()

	blockSize := int(t.io.BlockSize())
	for b := 0; b < t.io.DataAddress(); b++ {
		lo := b * blockSize
		hi := lo + blockSize
		var slice []byte
		if lo >= len(buf) {
			slice = make([]byte, blockSize)
		} else if hi > len(buf) {
			slice = make([]byte, blockSize)
			copy(slice, buf[lo:])
		} else {
			slice = buf[lo:hi]
		}
		if err := t.io.WriteBlock(b, slice); err != nil {
			return fmt.Errorf("fat: persist block %d: %w", b, err)
		}
	}
	return nil
}

// Entry returns the raw FAT value at block index i.
func (t *Table) Entry(i int16) int16 { return t.entries[i] }

// Stats reports total and free block counts, walking the resident table.
type Stats struct {
	TotalBlocks int
	FreeBlocks  int
	BlockSize   uint16
}

func (t *Table) Stats() Stats {
	free := 0
	for _, e := range t.entries {
		if e == Free {
			free++
		}
	}
	return Stats{TotalBlocks: NumEntries, FreeBlocks: free, BlockSize: t.io.BlockSize()}
}

// ChainBlocks returns the block indices of the chain rooted at start, in
// chain order, without reading their data. Used by the diagnostic dump to
// annotate contiguous runs.
func (t *Table) ChainBlocks(start int16) []int {
	if start == EndOfChain {
		return nil
	}
	var blocks []int
	cur := start
	for cur != EndOfChain {
		blocks = append(blocks, int(cur))
		cur = t.entries[cur]
	}
	return blocks
}

// WriteChain allocates (or reuses) a chain of blocks holding buffer and
// returns its first block address, or EndOfChain if buffer is empty.
//
// If startHint is EndOfChain, scanning begins at the data area's first
// block. Otherwise the chain currently rooted at startHint is freed first,
// and scanning restarts at startHint, giving in-place rewrites a chance to
// reuse their previous blocks.
func (t *Table) WriteChain(startHint int16, buffer []byte) (int16, error) {
	if startHint != EndOfChain {
		if err := t.FreeChain(startHint); err != nil {
			return EndOfChain, err
		}
	}
	if len(buffer) == 0 {
		return EndOfChain, nil
	}

	blockSize := int(t.io.BlockSize())
	dataAddress := t.io.DataAddress()

	scanStart := dataAddress
	if startHint != EndOfChain {
		scanStart = int(startHint)
	}

	written := 0
	candidates := NumEntries - dataAddress
	var chain []int16

	for offset := 0; offset < candidates && written < len(buffer); offset++ {
		cur := int16(dataAddress + (scanStart-dataAddress+offset)%candidates)
		if t.entries[cur] != Free {
			continue
		}

		lo := written
		hi := lo + blockSize
		var chunk []byte
		if hi > len(buffer) {
			chunk = make([]byte, blockSize)
			copy(chunk, buffer[lo:])
		} else {
			chunk = buffer[lo:hi]
		}
		if err := t.io.WriteBlock(int(cur), chunk); err != nil {
			return EndOfChain, err
		}

		chain = append(chain, cur)
		written += blockSize
	}

	if written < len(buffer) {
		// Nothing has been linked into t.entries yet, so the table is
		// still consistent: the data blocks written above remain FREE
		// and their stale contents are unreachable.
		return EndOfChain, fserr.New(fserr.FilesystemFull, "")
	}

	for i, cur := range chain {
		if i+1 < len(chain) {
			t.entries[cur] = chain[i+1]
		} else {
			t.entries[cur] = EndOfChain
		}
	}
	firstBlock := chain[0]

	t.log.WithFields(logrus.Fields{
		"hint":  startHint,
		"first": firstBlock,
	}).Debug("wrote chain")
	if err := t.Persist(); err != nil {
		return EndOfChain, err
	}
	return firstBlock, nil
}

// FreeChain marks every block in the chain rooted at start FREE. It is a
// no-op when start is EndOfChain.
func (t *Table) FreeChain(start int16) error {
	if start == EndOfChain {
		return nil
	}
	cur := start
	for cur != EndOfChain {
		next := t.entries[cur]
		t.entries[cur] = Free
		cur = next
	}
	t.log.WithField("start", start).Debug("freed chain")
	return t.Persist()
}

// ReadChain concatenates every block in the chain rooted at start, in
// chain order. It returns an empty slice when start is EndOfChain.
func (t *Table) ReadChain(start int16) ([]byte, error) {
	if start == EndOfChain {
		return nil, nil
	}
	var out []byte
	cur := start
	for cur != EndOfChain {
		blk, err := t.io.ReadBlock(int(cur))
		if err != nil {
			return nil, fmt.Errorf("fat: read chain at block %d: %w", cur, err)
		}
		out = append(out, blk...)
		cur = t.entries[cur]
	}
	return out, nil
}
