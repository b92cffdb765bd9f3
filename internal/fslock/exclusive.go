package fslock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Platforms without flock hold the lock by creating a sentinel next to the
// lock file with O_EXCL and removing it on release.
const (
	heldSuffix = ".held"
	pollEvery  = 10 * time.Millisecond
	staleAfter = 30 * time.Second
)

// createExclusive blocks until it creates path. A sentinel older than stale
// belongs to a holder that died without releasing and is removed.
func createExclusive(path string, stale time.Duration) error {
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			return f.Close()
		}
		if !errors.Is(err, fs.ErrExist) {
			return err
		}
		if info, serr := os.Stat(path); serr == nil && time.Since(info.ModTime()) > stale {
			_ = os.Remove(path)
			continue
		}
		time.Sleep(pollEvery)
	}
}

func removeExclusive(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
