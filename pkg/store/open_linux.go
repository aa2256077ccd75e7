//go:build linux

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// directIOSupported reports whether this platform honors Config.Direct.
const directIOSupported = true

// openFile opens the backing file, bypassing the page cache when direct is set.
func openFile(path string, direct bool) (*os.File, error) {
	flags := os.O_RDWR | os.O_CREATE
	if direct {
		flags |= unix.O_DIRECT
	}
	return os.OpenFile(path, flags, 0644)
}

// preallocate reserves extents without changing the visible file size, so the
// append cursor derived from Stat stays correct.
func preallocate(f *os.File, size int64) error {
	return unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
