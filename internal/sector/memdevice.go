package sector

// MemDevice is an in-memory Device backing a fixed number of sectors,
// used to exercise the block/allocator/directory layers in tests without
// touching the filesystem.
type MemDevice struct {
	buf     []byte
	sectors int
}

// NewMemDevice returns a zero-filled MemDevice with room for sectors sectors.
func NewMemDevice(sectors int) *MemDevice {
	return &MemDevice{
		buf:     make([]byte, sectors*Size),
		sectors: sectors,
	}
}

func (m *MemDevice) SectorCount() int { return m.sectors }

func (m *MemDevice) ReadSector(i int) ([]byte, error) {
	if i < 0 || i >= m.sectors {
		return nil, &ErrOutOfRange{Index: i, Count: m.sectors}
	}
	out := make([]byte, Size)
	copy(out, m.buf[i*Size:(i+1)*Size])
	return out, nil
}

func (m *MemDevice) WriteSector(i int, data []byte) error {
	if i < 0 || i >= m.sectors {
		return &ErrOutOfRange{Index: i, Count: m.sectors}
	}
	if len(data) != Size {
		return &ErrBadSize{Got: len(data)}
	}
	copy(m.buf[i*Size:(i+1)*Size], data)
	return nil
}
