// Command makefs formats a new imgfs image.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"imgfs"
	"imgfs/internal/block"
	"imgfs/internal/cliflags"
	"imgfs/internal/hostfile"
	"imgfs/internal/imgfscfg"
)

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: makefs [flags] <image> [blockSize]\n\n")
	fs.PrintDefaults()
}

func main() {
	if cfg, err := imgfscfg.Load(); err == nil && cfg.BlockSize != 0 {
		cliflags.SetBlockSize(cfg.BlockSize)
	}

	fs := pflag.NewFlagSet("makefs", pflag.ContinueOnError)
	cliflags.RegisterPflags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	log := logrus.StandardLogger()
	if cliflags.Verbose() {
		log.SetLevel(logrus.DebugLevel)
	}

	args := fs.Args()
	blockSize := cliflags.BlockSize()
	var imagePath string
	switch len(args) {
	case 1:
		imagePath = args[0]
	case 2:
		// Positional compatibility with the literal "makefs <image>
		// <blockSize>" grammar.
		imagePath = args[0]
		v, err := strconv.ParseUint(args[1], 10, 16)
		if err != nil {
			log.Errorf("makefs: invalid block size %q", args[1])
			os.Exit(1)
		}
		blockSize = uint16(v)
	default:
		usage(fs)
		os.Exit(1)
	}

	if !block.IsValidSize(blockSize) {
		log.Errorf("makefs: invalid block size %d", blockSize)
		os.Exit(1)
	}

	sectors := 1 + block.NumBlocks*int(blockSize)/512
	f, err := hostfile.Create(imagePath, sectors)
	if err != nil {
		log.Errorf("makefs: %v", err)
		os.Exit(1)
	}
	defer f.Close()

	if _, err := imgfs.Format(f, blockSize, log); err != nil {
		log.Errorf("makefs: %v", err)
		os.Exit(1)
	}
}
