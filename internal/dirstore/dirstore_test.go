package dirstore_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"imgfs/internal/block"
	"imgfs/internal/dirstore"
	"imgfs/internal/fat"
	"imgfs/internal/sector"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	entries := []dirstore.Entry{
		{IsDirectory: true, Name: "a", Size: 0, CanRead: true, CanWrite: true, Created: 1, LastModified: 2, FirstBlockAddress: -1},
		{IsDirectory: false, Name: "hello.txt", Size: 6, CanRead: true, CanWrite: false, Created: 3, LastModified: 4, FirstBlockAddress: 17},
	}
	buf := dirstore.Encode(entries)
	got, err := dirstore.Decode(buf, int16(len(buf)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeStopsAtRecordedSize(t *testing.T) {
	t.Parallel()

	entries := []dirstore.Entry{
		{Name: "a", FirstBlockAddress: -1},
		{Name: "b", FirstBlockAddress: -1},
	}
	buf := dirstore.Encode(entries)
	oneEntryLen := len(dirstore.Encode(entries[:1]))

	got, err := dirstore.Decode(buf, int16(oneEntryLen))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "a" {
		t.Fatalf("got %+v, want only the first entry", got)
	}
}

func TestStoreWriteReadChain(t *testing.T) {
	t.Parallel()

	dev := sector.NewMemDevice(fat.NumEntries * 1024 / sector.Size)
	io := block.New(dev, 1024)
	tbl := fat.New(io, nil)
	store := dirstore.New(tbl)

	entries := []dirstore.Entry{
		{IsDirectory: true, Name: "sub", CanRead: true, CanWrite: true, FirstBlockAddress: -1},
	}
	first, size, err := store.WriteChain(fat.EndOfChain, entries)
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.ReadChain(first, size)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteChainRejectsOversizedDirectory(t *testing.T) {
	t.Parallel()

	dev := sector.NewMemDevice(fat.NumEntries * 4096 / sector.Size)
	io := block.New(dev, 4096)
	tbl := fat.New(io, nil)
	store := dirstore.New(tbl)

	var entries []dirstore.Entry
	for i := 0; i < 2000; i++ {
		entries = append(entries, dirstore.Entry{Name: strings.Repeat("x", 20), FirstBlockAddress: -1})
	}
	if _, _, err := store.WriteChain(fat.EndOfChain, entries); err == nil {
		t.Fatal("expected an error for a directory exceeding the 32767-byte size field")
	}
}
