// Package fslock serialises board mutations across processes with an
// advisory lock file.
package fslock

import (
	"fmt"
	"os"
)

// Lock is a held advisory lock. Release it exactly once.
type Lock struct {
	file *os.File
}

// Acquire blocks until an exclusive lock on path is held.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fslock: open %s: %w", path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("fslock: lock %s: %w", path, err)
	}
	return &Lock{file: f}, nil
}

// Release drops the lock and closes the file.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlockFile(l.file)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	return err
}
