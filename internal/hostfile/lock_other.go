//go:build !unix

package hostfile

import "os"

// lock is a no-op on platforms without POSIX advisory locking.
type lock struct{}

func lockFile(f *os.File) (*lock, error) {
	return &lock{}, nil
}

func (l *lock) unlock() {}
