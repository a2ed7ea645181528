// Package superblock reads and writes the sector-0 record that carries an
// imgfs image's format parameters and the root container's serialized
// size.
package superblock

import (
	"fmt"

	"imgfs/internal/sector"
	"imgfs/internal/wire"
)

// PartitionID is the constant, reserved partition identifier every imgfs
// image carries.
const PartitionID uint8 = 1

// Sector is the fixed sector index the superblock lives at.
const Sector = 0

// Superblock is the sector-0 record.
type Superblock struct {
	PartitionID            uint8
	BlockSize              uint16
	RootDirectoryEntrySize int16
}

// Read decodes the superblock from sector 0 of dev.
func Read(dev sector.Device) (*Superblock, error) {
	buf, err := dev.ReadSector(Sector)
	if err != nil {
		return nil, fmt.Errorf("superblock: read sector 0: %w", err)
	}
	dec := wire.NewDecoder(buf)
	pid, err := dec.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("superblock: decode partitionId: %w", err)
	}
	blockSize, err := dec.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("superblock: decode blockSize: %w", err)
	}
	rootSize, err := dec.ReadI16()
	if err != nil {
		return nil, fmt.Errorf("superblock: decode rootDirectoryEntrySize: %w", err)
	}
	return &Superblock{PartitionID: pid, BlockSize: blockSize, RootDirectoryEntrySize: rootSize}, nil
}

// Write encodes sb and persists it to sector 0 of dev, padded with zero
// bytes to sector.Size.
func (sb *Superblock) Write(dev sector.Device) error {
	enc := wire.NewEncoder()
	enc.WriteU8(sb.PartitionID)
	enc.WriteU16(sb.BlockSize)
	enc.WriteI16(sb.RootDirectoryEntrySize)

	buf := make([]byte, sector.Size)
	copy(buf, enc.Bytes())
	if err := dev.WriteSector(Sector, buf); err != nil {
		return fmt.Errorf("superblock: write sector 0: %w", err)
	}
	return nil
}
