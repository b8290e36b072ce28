// Package atomicfile replaces file contents without ever exposing a
// partially-written file at the target path. New content goes to a sibling
// temp file, is forced to stable storage, and is renamed over the original
// in one step. An optional backup of the original is kept beside it.
package atomicfile

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// BackupSuffix is appended to the original path when a backup is requested.
// Backups are never pruned automatically.
const BackupSuffix = ".backup"

// Options control a replacement.
type Options struct {
	// Backup keeps a copy of the original at path+BackupSuffix before the
	// original is replaced.
	Backup bool
	// DryRun performs all read-side work but writes nothing: no temp file,
	// no backup, no rename.
	DryRun bool
	// PreCommit, when set, runs against the fully written temp file before
	// it is synced and renamed into place. Whatever it leaves at the temp
	// path is what lands at the target; the target itself is never touched.
	// An error aborts the replacement and removes the temp file.
	PreCommit func(tmpPath string) error
}

// TransformFunc copies src to dst, rewriting content as it goes. It must
// not retain either stream.
type TransformFunc func(dst io.Writer, src io.Reader) error

// Replace atomically replaces the file at path with data. The caller has
// already decided that data differs from the current content; with DryRun
// set this is a no-op.
func Replace(path string, data []byte, opts Options) error {
	if opts.DryRun {
		return nil
	}
	if opts.Backup {
		if err := writeBackup(path); err != nil {
			return err
		}
	}

	mode := targetMode(path)
	tmp := tempPath(path)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		discard(f, tmp)
		return fmt.Errorf("write temp file: %w", err)
	}
	if opts.PreCommit != nil {
		if f, err = runPreCommit(f, tmp, opts.PreCommit); err != nil {
			return err
		}
	}
	return commit(f, tmp, path)
}

// ReplaceWithTransform streams the file at path through transform and
// atomically replaces it with the result. It reports whether the content
// changed; when it did not, the original is left untouched and any temp
// file is removed. Change detection compares a 64-bit digest plus byte
// count of the input against the output, so neither side is buffered.
func ReplaceWithTransform(path string, transform TransformFunc, opts Options) (bool, error) {
	src, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	inSum := newSummer(io.Discard)
	reader := io.TeeReader(src, inSum)

	if opts.DryRun {
		outSum := newSummer(io.Discard)
		if err := transform(outSum, reader); err != nil {
			return false, err
		}
		return !inSum.equal(outSum), nil
	}

	tmp := tempPath(path)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, targetMode(path))
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	outSum := newSummer(f)
	if err := transform(outSum, reader); err != nil {
		discard(f, tmp)
		return false, err
	}

	if inSum.equal(outSum) {
		discard(f, tmp)
		return false, nil
	}

	if opts.PreCommit != nil {
		if f, err = runPreCommit(f, tmp, opts.PreCommit); err != nil {
			return false, err
		}
	}
	if opts.Backup {
		if err := writeBackup(path); err != nil {
			discard(f, tmp)
			return false, err
		}
	}
	if err := commit(f, tmp, path); err != nil {
		return false, err
	}
	return true, nil
}

// runPreCommit closes f, hands the temp path to pre, and reopens the file
// for the sync that follows. The reopen matters: tools like formatters may
// replace the temp file wholesale, leaving the old descriptor pointing at
// an unlinked inode.
func runPreCommit(f *os.File, tmp string, pre func(string) error) (*os.File, error) {
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("close temp file: %w", err)
	}
	if err := pre(tmp); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("pre-commit: %w", err)
	}
	f, err := os.OpenFile(tmp, os.O_RDWR, 0)
	if err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("reopen temp file: %w", err)
	}
	return f, nil
}

// commit forces f to stable storage, closes it, and renames it over path.
func commit(f *os.File, tmp, path string) error {
	if err := syncFile(f); err != nil {
		discard(f, tmp)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func discard(f *os.File, tmp string) {
	_ = f.Close()
	_ = os.Remove(tmp)
}

// tempPath returns a sibling path with a collision-proof suffix, keeping
// the temp file on the same filesystem so the final rename stays atomic.
func tempPath(path string) string {
	return path + ".tmp-" + uuid.NewString()[:8]
}

// targetMode mirrors the original file's permissions on the replacement.
func targetMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}

func writeBackup(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open original for backup: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path+BackupSuffix, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, targetMode(path))
	if err != nil {
		return fmt.Errorf("create backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("write backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	return nil
}

// summer forwards writes to an underlying writer while tracking a digest
// and byte count of everything written through it.
type summer struct {
	w io.Writer
	h *xxhash.Digest
	n int64
}

func newSummer(w io.Writer) *summer {
	return &summer{w: w, h: xxhash.New()}
}

func (s *summer) Write(p []byte) (int, error) {
	_, _ = s.h.Write(p) // never fails
	s.n += int64(len(p))
	return s.w.Write(p)
}

func (s *summer) equal(other *summer) bool {
	return s.n == other.n && s.h.Sum64() == other.h.Sum64()
}
