//go:build linux

package atomicfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// syncFile forces file data to stable storage. Linux has fdatasync, which
// skips the metadata flush a full fsync would do.
func syncFile(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
