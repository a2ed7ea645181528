package block_test

import (
	"testing"

	"imgfs/internal/block"
	"imgfs/internal/sector"
)

func TestDataAddress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		blockSize uint16
		want      int
	}{
		{512, 16},
		{1024, 8},
		{2048, 4},
		{4096, 2},
	}
	for _, c := range cases {
		io := block.New(sector.NewMemDevice(1), c.blockSize)
		if got := io.DataAddress(); got != c.want {
			t.Errorf("blockSize=%d: DataAddress() = %d, want %d", c.blockSize, got, c.want)
		}
	}
}

func TestIsValidSize(t *testing.T) {
	t.Parallel()

	for _, v := range block.ValidSizes {
		if !block.IsValidSize(v) {
			t.Errorf("IsValidSize(%d) = false, want true", v)
		}
	}
	for _, v := range []uint16{0, 256, 700, 8192} {
		if block.IsValidSize(v) {
			t.Errorf("IsValidSize(%d) = true, want false", v)
		}
	}
}

func TestWriteReadBlockRoundTrip(t *testing.T) {
	t.Parallel()

	dev := sector.NewMemDevice(block.NumBlocks*1024/sector.Size + 1)
	io := block.New(dev, 1024)

	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := io.WriteBlock(5, data); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadBlock(5)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Fatal("round trip mismatch")
	}
}

func TestWriteBlockRejectsWrongLength(t *testing.T) {
	t.Parallel()

	dev := sector.NewMemDevice(block.NumBlocks*512/sector.Size + 1)
	io := block.New(dev, 512)
	if err := io.WriteBlock(0, make([]byte, 511)); err == nil {
		t.Fatal("expected an error for a short buffer")
	}
}

func TestOutOfRangeBlockFails(t *testing.T) {
	t.Parallel()

	dev := sector.NewMemDevice(block.NumBlocks*512/sector.Size + 1)
	io := block.New(dev, 512)
	if _, err := io.ReadBlock(block.NumBlocks); err == nil {
		t.Fatal("expected an error for block.NumBlocks (out of range)")
	}
	if _, err := io.ReadBlock(-1); err == nil {
		t.Fatal("expected an error for a negative block address")
	}
}

func TestSectorsPerBlock(t *testing.T) {
	t.Parallel()

	io := block.New(sector.NewMemDevice(1), 2048)
	if got, want := io.SectorsPerBlock(), 4; got != want {
		t.Fatalf("SectorsPerBlock() = %d, want %d", got, want)
	}
}
