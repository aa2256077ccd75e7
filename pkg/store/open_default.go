//go:build !linux

package store

import "os"

// directIOSupported reports whether this platform honors Config.Direct.
const directIOSupported = false

// openFile opens the backing file. O_DIRECT has no portable equivalent here,
// so Config.Direct is ignored; the alignment discipline is kept regardless.
func openFile(path string, direct bool) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
}

func preallocate(f *os.File, size int64) error {
	// Best effort only on platforms without fallocate.
	return nil
}
