// Package discover locates the pieces of a relocated python installation
// that the patcher operates on: the install root, the versioned library
// directory, the generated sysconfigdata module, and the pkgconfig files.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports that a required installation component is missing.
var ErrNotFound = errors.New("not found")

// markerExecutable identifies a directory as the installation root.
const markerExecutable = "bin/python3"

// InstallRoot resolves the installation root from a user-supplied path.
// The root is wherever the python3 executable lives; distribution archives
// often nest the real root inside an install/ directory, which is followed.
// The returned path is absolute.
func InstallRoot(path string) (string, error) {
	if root, ok := probeInstallRoot(path); ok {
		return filepath.Abs(root)
	}
	return "", fmt.Errorf("python install root %w at %s", ErrNotFound, path)
}

func probeInstallRoot(path string) (string, bool) {
	if _, err := os.Stat(filepath.Join(path, markerExecutable)); err == nil {
		return path, true
	}
	nested := filepath.Join(path, "install")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return probeInstallRoot(nested)
	}
	return "", false
}

// LibDir returns the single lib/python3.* directory under the root. More
// than one candidate is ambiguous and reported as an error.
func LibDir(root string) (string, error) {
	libdir := filepath.Join(root, "lib")
	children, err := os.ReadDir(libdir)
	if err != nil {
		return "", fmt.Errorf("lib directory %w under %s", ErrNotFound, root)
	}

	var candidates []string
	for _, child := range children {
		if child.IsDir() && strings.HasPrefix(child.Name(), "python3") {
			candidates = append(candidates, filepath.Join(libdir, child.Name()))
		}
	}
	switch len(candidates) {
	case 1:
		return candidates[0], nil
	case 0:
		return "", fmt.Errorf("lib/python3.x directory %w under %s", ErrNotFound, root)
	default:
		return "", fmt.Errorf("ambiguous lib directories under %s: %v", root, candidates)
	}
}

// SysconfigData returns the path of the generated _sysconfigdata_*.py
// module inside the installation's library directory. Symlinks are skipped
// so the patcher always edits the real file.
func SysconfigData(root string) (string, error) {
	libdir, err := LibDir(root)
	if err != nil {
		return "", err
	}
	children, err := os.ReadDir(libdir)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", libdir, err)
	}
	for _, child := range children {
		if !child.Type().IsRegular() {
			continue
		}
		name := child.Name()
		if strings.HasPrefix(name, "_sysconfigdata_") && strings.HasSuffix(name, ".py") {
			return filepath.Join(libdir, name), nil
		}
	}
	return "", fmt.Errorf("_sysconfigdata_*.py %w in %s", ErrNotFound, libdir)
}

// PkgconfigFiles enumerates the regular, non-symlink *.pc files under
// lib/pkgconfig. A missing directory yields an empty list, not an error;
// the caller decides whether that is a problem.
func PkgconfigFiles(root string) ([]string, error) {
	dir := filepath.Join(root, "lib", "pkgconfig")
	children, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var files []string
	for _, child := range children {
		if child.Type().IsRegular() && filepath.Ext(child.Name()) == ".pc" {
			files = append(files, filepath.Join(dir, child.Name()))
		}
	}
	return files, nil
}
