// Package cliflags registers the pflag.FlagSet options shared by the
// makefs and fsutil command-line tools.
package cliflags

import (
	"github.com/spf13/pflag"
)

var (
	blockSize = uint16(512)
	verbose   = false
)

// RegisterPflags registers --block-size and --verbose on fs. Callers parse
// fs themselves so that the two binaries can add their own positional
// arguments around these shared flags.
func RegisterPflags(fs *pflag.FlagSet) {
	fs.Uint16Var(&blockSize,
		"block-size",
		blockSize,
		`block size in bytes, one of 512, 1024, 2048, 4096`)

	fs.BoolVarP(&verbose,
		"verbose",
		"v",
		verbose,
		`enable debug logging`)
}

func SetBlockSize(b uint16) { blockSize = b }

func BlockSize() uint16 { return blockSize }
func Verbose() bool     { return verbose }
