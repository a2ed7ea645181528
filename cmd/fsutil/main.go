// Command fsutil manipulates an existing imgfs image: create and remove
// directories, copy files in and out, change permissions, and print a
// diagnostic dump.
package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"imgfs"
	"imgfs/internal/cliflags"
	"imgfs/internal/hostfile"
)

func usage(fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `usage: fsutil [flags] <image> <subcommand> [args]

subcommands:
  mkdir <path>
  dir <path>
  rmdir <path>
  write <dstPathInFs> <srcPathOnHost>
  read <srcPathInFs> <dstPathOnHost>
  del <path>
  chmod <mode> <path>
  dumpfs

`)
	fs.PrintDefaults()
}

// normalizePath converts backslashes to forward slashes and strips a
// single trailing slash, except when the path is "/" itself.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

var jsonOutput bool

func main() {
	fs := pflag.NewFlagSet("fsutil", pflag.ContinueOnError)
	cliflags.RegisterPflags(fs)
	fs.BoolVar(&jsonOutput, "json", false, "print dumpfs output as JSON")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	log := logrus.StandardLogger()
	if cliflags.Verbose() {
		log.SetLevel(logrus.DebugLevel)
	}

	args := fs.Args()
	if len(args) < 2 {
		usage(fs)
		os.Exit(1)
	}
	imagePath, subcommand, rest := args[0], args[1], args[2:]

	info, err := os.Stat(imagePath)
	if err != nil {
		log.Errorf("fsutil: %v", err)
		os.Exit(1)
	}
	f, err := hostfile.Open(imagePath, int(info.Size()/512))
	if err != nil {
		log.Errorf("fsutil: %v", err)
		os.Exit(1)
	}
	defer f.Close()

	e, err := imgfs.Open(f, log)
	if err != nil {
		log.Errorf("fsutil: %v", err)
		os.Exit(1)
	}

	if err := run(e, log, subcommand, rest); err != nil {
		log.Errorf("fsutil: %s: %v", subcommand, err)
		os.Exit(1)
	}
}

func run(e *imgfs.Engine, log *logrus.Logger, subcommand string, args []string) error {
	switch subcommand {
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("mkdir <path>")
		}
		return e.CreateDirectory(normalizePath(args[0]))

	case "dir":
		if len(args) != 1 {
			return fmt.Errorf("dir <path>")
		}
		entries, err := e.ListDirectory(normalizePath(args[0]))
		if err != nil {
			return err
		}
		for _, a := range entries {
			printEntry(os.Stdout, a)
		}
		return nil

	case "rmdir":
		if len(args) != 1 {
			return fmt.Errorf("rmdir <path>")
		}
		return e.DeleteDirectory(normalizePath(args[0]))

	case "write":
		if len(args) != 2 {
			return fmt.Errorf("write <dstPathInFs> <srcPathOnHost>")
		}
		return writeIn(e, normalizePath(args[0]), args[1])

	case "read":
		if len(args) != 2 {
			return fmt.Errorf("read <srcPathInFs> <dstPathOnHost>")
		}
		return readOut(e, normalizePath(args[0]), args[1])

	case "del":
		if len(args) != 1 {
			return fmt.Errorf("del <path>")
		}
		return e.DeleteFile(normalizePath(args[0]))

	case "chmod":
		if len(args) != 2 {
			return fmt.Errorf("chmod <mode> <path>")
		}
		return e.Chmod(normalizePath(args[1]), args[0])

	case "dumpfs":
		report, err := e.Dump()
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		fmt.Print(report.String())
		return nil

	default:
		return fmt.Errorf("unknown subcommand %q", subcommand)
	}
}

func printEntry(w *os.File, a imgfs.Attributes) {
	d, r, wr := "-", "-", "-"
	if a.IsDirectory {
		d = "d"
	}
	if a.CanRead {
		r = "r"
	}
	if a.CanWrite {
		wr = "w"
	}
	created := time.Unix(0, a.Created).UTC().Format(time.RFC3339)
	modified := time.Unix(0, a.LastModified).UTC().Format(time.RFC3339)
	fmt.Fprintf(w, "%s%s%s %s %s %6d %s\n", d, r, wr, created, modified, a.Size, a.Name)
}

// writeIn copies srcPathOnHost into the image at dstPathInFs, mirroring the
// host file's owner read/write bits onto the new entry's permissions.
func writeIn(e *imgfs.Engine, dstPathInFs, srcPathOnHost string) error {
	data, err := ioutil.ReadFile(srcPathOnHost)
	if err != nil {
		return err
	}
	info, err := os.Stat(srcPathOnHost)
	if err != nil {
		return err
	}
	if err := e.WriteFile(dstPathInFs, data); err != nil {
		return err
	}
	mode := info.Mode()
	sign := func(set bool) byte {
		if set {
			return '+'
		}
		return '-'
	}
	chmod := fmt.Sprintf("%cr%cw", sign(mode&0400 != 0), sign(mode&0200 != 0))
	return e.Chmod(dstPathInFs, chmod)
}

// readOut copies srcPathInFs out to dstPathOnHost, mirroring the entry's
// permission bits onto the host file's owner bits.
func readOut(e *imgfs.Engine, srcPathInFs, dstPathOnHost string) error {
	data, err := e.ReadFile(srcPathInFs)
	if err != nil {
		return err
	}
	attrs, err := e.ReadAttributes(srcPathInFs)
	if err != nil {
		return err
	}
	var mode os.FileMode = 0
	if attrs.CanRead {
		mode |= 0400
	}
	if attrs.CanWrite {
		mode |= 0200
	}
	if err := ioutil.WriteFile(dstPathOnHost, data, mode); err != nil {
		return err
	}
	return os.Chmod(dstPathOnHost, mode)
}
