//go:build !linux

package atomicfile

import "os"

// syncFile forces file data to stable storage.
func syncFile(f *os.File) error {
	return f.Sync()
}
