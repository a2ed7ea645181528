package imgfs_test

import (
	"bytes"
	"errors"
	"testing"

	"imgfs"
	"imgfs/internal/fat"
	"imgfs/internal/fserr"
	"imgfs/internal/sector"
)

func newImage(t *testing.T, blockSize uint16, blocks int) *imgfs.Engine {
	t.Helper()
	dev := sector.NewMemDevice(blocks*int(blockSize)/sector.Size + 1)
	e, err := imgfs.Format(dev, blockSize, nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return e
}

func TestOpenWrapsLowerLayerIOFailure(t *testing.T) {
	t.Parallel()

	// A zero-sector device can't even hold sector 0, so Open's superblock
	// read fails at the sector device below the engine.
	dev := sector.NewMemDevice(0)
	_, err := imgfs.Open(dev, nil)
	if err == nil {
		t.Fatal("expected an error opening an empty device")
	}
	var fe *fserr.Error
	if !errors.As(err, &fe) || fe.Kind != fserr.IOFailure {
		t.Fatalf("err = %v, want an *fserr.Error with Kind IOFailure", err)
	}
	var rangeErr *sector.ErrOutOfRange
	if !errors.As(err, &rangeErr) {
		t.Fatalf("err = %v, want the underlying sector.ErrOutOfRange to remain unwrappable", err)
	}
}

func TestFormatScenario1FreshFreeCount(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	stats := e.Stats()
	if got, want := stats.FreeBlocks, 4079; got != want {
		t.Fatalf("free blocks = %d, want %d", got, want)
	}
}

func TestFormatRootContainerAttributes(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	attrs, err := e.ReadAttributes("/")
	if err != nil {
		t.Fatal(err)
	}
	if !attrs.IsDirectory || attrs.Name != "/" || !attrs.CanRead || !attrs.CanWrite {
		t.Fatalf("root attributes = %+v", attrs)
	}
	list, err := e.ListDirectory("/")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("fresh root should be empty, got %+v", list)
	}
}

func TestScenario2MkdirAndList(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.CreateDirectory("/a"); err != nil {
		t.Fatal(err)
	}
	list, err := e.ListDirectory("/")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d entries, want 1", len(list))
	}
	got := list[0]
	if got.Name != "a" || !got.IsDirectory || !got.CanRead || !got.CanWrite {
		t.Fatalf("entry = %+v", got)
	}
}

func TestScenario3WriteReadHello(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	data := []byte("hello\n")
	if err := e.WriteFile("/hello", data); err != nil {
		t.Fatal(err)
	}
	got, err := e.ReadFile("/hello")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read %q, want %q", got, data)
	}
	attrs, err := e.ReadAttributes("/hello")
	if err != nil {
		t.Fatal(err)
	}
	if attrs.Size != 6 {
		t.Fatalf("size = %d, want 6", attrs.Size)
	}
}

func TestScenario4LargeFileSpansBlocks(t *testing.T) {
	t.Parallel()

	e := newImage(t, 1024, fat.NumEntries)
	data := make([]byte, 2050)
	for i := range data {
		data[i] = byte(i)
	}
	if err := e.WriteFile("/big", data); err != nil {
		t.Fatal(err)
	}
	got, err := e.ReadFile("/big")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2050 {
		t.Fatalf("len = %d, want 2050", len(got))
	}
	if !bytes.Equal(got, data) {
		t.Fatal("content mismatch")
	}
}

func TestScenario5RmdirReclaimsBlocks(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	before := e.Stats().FreeBlocks

	if err := e.CreateDirectory("/d"); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteFile("/d/f", bytes.Repeat([]byte{'x'}, 100)); err != nil {
		t.Fatal(err)
	}
	if err := e.DeleteDirectory("/d"); err != nil {
		t.Fatal(err)
	}

	if _, err := e.ReadAttributes("/d"); !errors.Is(err, fserr.New(fserr.NoSuchFileOrDirectory, "")) {
		t.Fatalf("expected /d gone, got %v", err)
	}
	after := e.Stats().FreeBlocks
	if before != after {
		t.Fatalf("free blocks = %d, want %d (pre-mkdir count restored)", after, before)
	}
}

func TestScenario6ChmodEnforcesPermission(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.WriteFile("/x", []byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := e.Chmod("/x", "-w"); err != nil {
		t.Fatal(err)
	}
	err := e.WriteFile("/x", []byte("more"))
	if !errors.Is(err, fserr.New(fserr.Permission, "")) {
		t.Fatalf("expected Permission error, got %v", err)
	}
	if err := e.Chmod("/x", "+w"); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteFile("/x", []byte("more")); err != nil {
		t.Fatalf("write after chmod +w: %v", err)
	}
}

func TestChmodIdempotent(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.WriteFile("/x", []byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := e.Chmod("/x", "+r"); err != nil {
		t.Fatal(err)
	}
	first, err := e.ReadAttributes("/x")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Chmod("/x", "+r"); err != nil {
		t.Fatal(err)
	}
	second, err := e.ReadAttributes("/x")
	if err != nil {
		t.Fatal(err)
	}
	if first.CanRead != second.CanRead || first.CanWrite != second.CanWrite {
		t.Fatalf("chmod +r twice changed attributes: %+v vs %+v", first, second)
	}
}

func TestMkdirDuplicateNameFails(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.CreateDirectory("/a"); err != nil {
		t.Fatal(err)
	}
	err := e.CreateDirectory("/a")
	if !errors.Is(err, fserr.New(fserr.FileExists, "")) {
		t.Fatalf("expected FileExists, got %v", err)
	}
}

func TestListDirectoryPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	names := []string{"z", "a", "m", "b"}
	for _, n := range names {
		if err := e.CreateDirectory("/" + n); err != nil {
			t.Fatal(err)
		}
	}
	list, err := e.ListDirectory("/")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != len(names) {
		t.Fatalf("got %d entries, want %d", len(list), len(names))
	}
	for i, n := range names {
		if list[i].Name != n {
			t.Fatalf("entry %d = %q, want %q", i, list[i].Name, n)
		}
	}
}

func TestWriteFileRejectsDirectoryTarget(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.CreateDirectory("/d"); err != nil {
		t.Fatal(err)
	}
	err := e.WriteFile("/d", []byte("x"))
	if !errors.Is(err, fserr.New(fserr.IsADirectory, "")) {
		t.Fatalf("expected IsADirectory, got %v", err)
	}
}

func TestReadFileRejectsDirectoryTarget(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.CreateDirectory("/d"); err != nil {
		t.Fatal(err)
	}
	_, err := e.ReadFile("/d")
	if !errors.Is(err, fserr.New(fserr.IsADirectory, "")) {
		t.Fatalf("expected IsADirectory, got %v", err)
	}
}

func TestNestedPathsAndDeepDeletion(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.CreateDirectory("/a"); err != nil {
		t.Fatal(err)
	}
	if err := e.CreateDirectory("/a/b"); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteFile("/a/b/c.txt", []byte("nested")); err != nil {
		t.Fatal(err)
	}
	got, err := e.ReadFile("/a/b/c.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "nested" {
		t.Fatalf("got %q", got)
	}

	before := e.Stats().FreeBlocks
	if err := e.DeleteDirectory("/a"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ReadAttributes("/a"); !errors.Is(err, fserr.New(fserr.NoSuchFileOrDirectory, "")) {
		t.Fatalf("expected /a gone, got %v", err)
	}
	after := e.Stats().FreeBlocks
	if after <= before {
		t.Fatalf("expected free blocks to grow after deep delete, before=%d after=%d", before, after)
	}
}

func TestRewriteFileAtSteadyStateReusesBlocks(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	data := make([]byte, 512*2)
	if err := e.WriteFile("/f", data); err != nil {
		t.Fatal(err)
	}
	before := e.Stats().FreeBlocks
	if err := e.WriteFile("/f", data); err != nil {
		t.Fatal(err)
	}
	after := e.Stats().FreeBlocks
	if before != after {
		t.Fatalf("free blocks changed on steady-state rewrite: %d -> %d", before, after)
	}
}

func TestFormatRejectsInvalidBlockSize(t *testing.T) {
	t.Parallel()

	dev := sector.NewMemDevice(fat.NumEntries)
	if _, err := imgfs.Format(dev, 700, nil); err == nil {
		t.Fatal("expected an error for an invalid block size")
	}
}

func TestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	dev := sector.NewMemDevice(fat.NumEntries*512/sector.Size + 1)
	e, err := imgfs.Format(dev, 512, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.WriteFile("/hello", []byte("hi")); err != nil {
		t.Fatal(err)
	}

	reopened, err := imgfs.Open(dev, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.ReadFile("/hello")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}
}

func TestDumpReportsCounts(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.CreateDirectory("/a"); err != nil {
		t.Fatal(err)
	}
	if err := e.WriteFile("/a/f", []byte("x")); err != nil {
		t.Fatal(err)
	}
	report, err := e.Dump()
	if err != nil {
		t.Fatal(err)
	}
	if report.FileCount != 1 || report.DirectoryCount != 1 {
		t.Fatalf("report = %+v", report)
	}
	if report.String() == "" {
		t.Fatal("expected non-empty rendered report")
	}
}

func TestChmodInvalidModeString(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.WriteFile("/x", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := e.Chmod("/x", "x"); !errors.Is(err, fserr.New(fserr.InvalidMode, "")) {
		t.Fatalf("expected InvalidMode, got %v", err)
	}
	if err := e.Chmod("/x", "+z"); !errors.Is(err, fserr.New(fserr.InvalidMode, "")) {
		t.Fatalf("expected InvalidMode, got %v", err)
	}
	if err := e.Chmod("/x", "rw"); !errors.Is(err, fserr.New(fserr.InvalidMode, "")) {
		t.Fatalf("expected InvalidMode for a mode not starting with a sign, got %v", err)
	}
}

func TestChmodStickySign(t *testing.T) {
	t.Parallel()

	e := newImage(t, 512, fat.NumEntries)
	if err := e.WriteFile("/x", []byte("x")); err != nil {
		t.Fatal(err)
	}

	// A single sign applies to every flag that follows it.
	if err := e.Chmod("/x", "-rw"); err != nil {
		t.Fatal(err)
	}
	attrs, err := e.ReadAttributes("/x")
	if err != nil {
		t.Fatal(err)
	}
	if attrs.CanRead || attrs.CanWrite {
		t.Fatalf("attrs = %+v, want both cleared", attrs)
	}

	if err := e.Chmod("/x", "+rw"); err != nil {
		t.Fatal(err)
	}
	attrs, err = e.ReadAttributes("/x")
	if err != nil {
		t.Fatal(err)
	}
	if !attrs.CanRead || !attrs.CanWrite {
		t.Fatalf("attrs = %+v, want both set", attrs)
	}

	// A later sign overrides an earlier one for subsequent flags.
	if err := e.Chmod("/x", "+r-r"); err != nil {
		t.Fatal(err)
	}
	attrs, err = e.ReadAttributes("/x")
	if err != nil {
		t.Fatal(err)
	}
	if attrs.CanRead {
		t.Fatalf("attrs = %+v, want CanRead cleared (last sign wins)", attrs)
	}

	// A lone sign with no flags is a valid no-op.
	if err := e.Chmod("/x", "+"); err != nil {
		t.Fatalf("expected a lone sign to be a valid no-op, got %v", err)
	}
}
