// Package imgfscfg reads optional host defaults for the imgfs command-line
// tools, such as the default block size and the default image path, from
// $IMGFS_CONFIG_DIR or the platform configuration directory.
package imgfscfg

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
)

var (
	userConfigDir = func() string {
		if d := os.Getenv("IMGFS_CONFIG_DIR"); d != "" {
			return d
		}
		dir, err := os.UserConfigDir()
		if err != nil {
			log.Fatalf("https://golang.org/pkg/os/#UserConfigDir failed: %v", err)
		}
		return filepath.Join(dir, "imgfs")
	}()
)

// Dir returns the directory imgfs reads its configuration file from.
// Typically ~/.config/imgfs on Linux.
func Dir() string { return userConfigDir }

// Defaults holds host-specific defaults for the makefs and fsutil tools.
type Defaults struct {
	// BlockSize is the block size used by makefs when none is given on
	// the command line. Must be one of 512, 1024, 2048, 4096.
	BlockSize uint16 `json:"blockSize"`
	// Image is a default image path. Load reads it, but neither makefs
	// nor fsutil uses it; fsutil always takes the image path as an
	// argument.
	Image string `json:"image"`
}

// Load reads config.json from Dir(), returning zero-value Defaults (not an
// error) if the file does not exist.
func Load() (Defaults, error) {
	var d Defaults
	b, err := ioutil.ReadFile(filepath.Join(userConfigDir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, err
	}
	if err := json.Unmarshal(b, &d); err != nil {
		return d, err
	}
	return d, nil
}
