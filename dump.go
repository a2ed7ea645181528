package imgfs

import (
	"fmt"
	"strings"

	"imgfs/internal/humanize"
)

// DumpEntry is one line of a recursive directory tree dump.
type DumpEntry struct {
	Depth       int
	Name        string
	IsDirectory bool
	// Chain annotates the entry's block chain as contiguous runs, in the
	// form "start[-end][->next_start]...", empty for an empty chain.
	Chain string
}

// DumpReport is the diagnostic snapshot returned by Dump: block accounting
// plus a flattened directory tree, in the same order a recursive walk
// would print it.
type DumpReport struct {
	TotalBlocks    int
	FreeBlocks     int
	BlockSize      uint16
	FileCount      int
	DirectoryCount int
	Tree           []DumpEntry
}

// String renders the report the way the command-line dumpfs subcommand
// prints it.
func (r DumpReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Block count: %d\n", r.TotalBlocks)
	fmt.Fprintf(&sb, "Free blocks: %d (%s)\n", r.FreeBlocks, humanize.Bytes(uint64(r.FreeBlocks)*uint64(r.BlockSize)))
	fmt.Fprintf(&sb, "Block size: %d\n", r.BlockSize)
	fmt.Fprintf(&sb, "File count: %d\n", r.FileCount)
	fmt.Fprintf(&sb, "Directory count: %d\n", r.DirectoryCount)
	for _, e := range r.Tree {
		fmt.Fprintf(&sb, "%s%s %s\n", strings.Repeat(" ", e.Depth), e.Name, e.Chain)
	}
	return sb.String()
}

// Dump walks the whole namespace and returns a diagnostic report.
func (e *Engine) Dump() (DumpReport, error) {
	stats := e.Stats()
	tree, files, dirs, err := e.dumpDirectory("", 0)
	if err != nil {
		return DumpReport{}, err
	}
	return DumpReport{
		TotalBlocks:    stats.TotalBlocks,
		FreeBlocks:     stats.FreeBlocks,
		BlockSize:      stats.BlockSize,
		FileCount:      files,
		DirectoryCount: dirs,
		Tree:           tree,
	}, nil
}

func (e *Engine) dumpDirectory(path string, depth int) ([]DumpEntry, int, int, error) {
	entries, err := e.readDirectoryEntries(path)
	if err != nil {
		return nil, 0, 0, err
	}

	var tree []DumpEntry
	files, dirs := 0, 0
	for _, en := range entries {
		tree = append(tree, DumpEntry{
			Depth:       depth,
			Name:        en.Name,
			IsDirectory: en.IsDirectory,
			Chain:       e.chainRun(en.FirstBlockAddress),
		})
		if en.IsDirectory {
			dirs++
			sub, f, d, err := e.dumpDirectory(joinPath(path, en.Name), depth+2)
			if err != nil {
				return nil, 0, 0, err
			}
			tree = append(tree, sub...)
			files += f
			dirs += d
		} else {
			files++
		}
	}
	return tree, files, dirs, nil
}

// chainRun annotates the chain rooted at first as a sequence of contiguous
// block runs, writing "-end" when a run breaks and "->next" when the chain
// jumps to a noncontiguous block. It walks e.fat.ChainBlocks(first) rather
// than following fat.Table.Entry links itself.
func (e *Engine) chainRun(first int16) string {
	blocks := e.fat.ChainBlocks(first)
	if len(blocks) == 0 {
		return ""
	}

	var sb strings.Builder
	beginIdx := 0
	fmt.Fprintf(&sb, "%d", blocks[0])

	for i, address := range blocks {
		hasNext := i+1 < len(blocks)
		var next int
		if hasNext {
			next = blocks[i+1]
		}
		if !hasNext || next != address+1 {
			if i != beginIdx {
				fmt.Fprintf(&sb, "-%d", address)
			}
			if hasNext {
				fmt.Fprintf(&sb, "->%d", next)
				beginIdx = i + 1
			}
		}
	}
	return sb.String()
}
