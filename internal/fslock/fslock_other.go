//go:build !unix

package fslock

import "os"

func lockFile(f *os.File) error {
	return createExclusive(f.Name()+heldSuffix, staleAfter)
}

func unlockFile(f *os.File) error {
	return removeExclusive(f.Name() + heldSuffix)
}
