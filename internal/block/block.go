// Package block maps logical, fixed-size blocks onto a contiguous run of
// sectors on a sector.Device, offset by one sector that holds the
// superblock. It is the only layer that knows how block addresses turn
// into sector addresses.
package block

import (
	"fmt"

	"imgfs/internal/sector"
)

// NumBlocks is the fixed size of the File Allocation Table, and therefore
// the number of addressable blocks on any imgfs image regardless of block
// size. It is a format constant, not persisted on-image: both the
// formatter and the opener must agree on it.
const NumBlocks = 4096

// ValidSizes lists the block sizes imgfs images may use.
var ValidSizes = [...]uint16{512, 1024, 2048, 4096}

// IsValidSize reports whether size is one of ValidSizes.
func IsValidSize(size uint16) bool {
	for _, v := range ValidSizes {
		if v == size {
			return true
		}
	}
	return false
}

// IO maps block reads and writes onto sectors of dev.
type IO struct {
	dev       sector.Device
	blockSize uint16
}

// New returns an IO layer for dev using blockSize-byte blocks. blockSize
// must be one of ValidSizes; callers are expected to validate it earlier
// (at format/open time) via IsValidSize.
func New(dev sector.Device, blockSize uint16) *IO {
	return &IO{dev: dev, blockSize: blockSize}
}

// BlockSize returns the configured block size in bytes.
func (b *IO) BlockSize() uint16 { return b.blockSize }

// SectorsPerBlock returns how many sectors make up one block.
func (b *IO) SectorsPerBlock() int {
	return int(b.blockSize) / sector.Size
}

// DataAddress returns the first block index usable for user data:
// ceil(NumBlocks*2 / blockSize), the number of blocks the FAT itself
// occupies when serialized as NumBlocks little-endian int16 values.
func (b *IO) DataAddress() int {
	fatBytes := NumBlocks * 2
	blocks := fatBytes / int(b.blockSize)
	if fatBytes%int(b.blockSize) != 0 {
		blocks++
	}
	return blocks
}

func (b *IO) firstSector(blockNum int) int {
	return 1 + blockNum*b.SectorsPerBlock()
}

func (b *IO) checkRange(blockNum int) error {
	if blockNum < 0 || blockNum >= NumBlocks {
		return fmt.Errorf("block: address %d out of range [0, %d)", blockNum, NumBlocks)
	}
	return nil
}

// ReadBlock returns exactly BlockSize() bytes read from block blockNum.
func (b *IO) ReadBlock(blockNum int) ([]byte, error) {
	if err := b.checkRange(blockNum); err != nil {
		return nil, err
	}
	out := make([]byte, 0, b.blockSize)
	first := b.firstSector(blockNum)
	for s := 0; s < b.SectorsPerBlock(); s++ {
		sec, err := b.dev.ReadSector(first + s)
		if err != nil {
			return nil, fmt.Errorf("block: read block %d: %w", blockNum, err)
		}
		out = append(out, sec...)
	}
	return out, nil
}

// WriteBlock writes data, which must be exactly BlockSize() bytes long, to
// block blockNum.
func (b *IO) WriteBlock(blockNum int, data []byte) error {
	if err := b.checkRange(blockNum); err != nil {
		return err
	}
	if len(data) != int(b.blockSize) {
		return fmt.Errorf("block: write block %d: expected %d bytes, got %d", blockNum, b.blockSize, len(data))
	}
	first := b.firstSector(blockNum)
	for s := 0; s < b.SectorsPerBlock(); s++ {
		lo := s * sector.Size
		hi := lo + sector.Size
		if err := b.dev.WriteSector(first+s, data[lo:hi]); err != nil {
			return fmt.Errorf("block: write block %d: %w", blockNum, err)
		}
	}
	return nil
}
