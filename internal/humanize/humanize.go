// Package humanize formats byte counts for the dumpfs diagnostic report.
package humanize

import "fmt"

// Bytes renders a byte count as a short human-readable string, e.g. "12 KiB".
func Bytes(bytes uint64) string {
	switch {
	case bytes > (1024 * 1024):
		return fmt.Sprintf("%.f MiB", float64(bytes)/1024/1024)
	case bytes > 1024:
		return fmt.Sprintf("%.f KiB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
