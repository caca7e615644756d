// Package osutil wraps the path and file-system calls used by record file I/O.
package osutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Exists reports whether path names an existing file or directory.
// Errors other than "not exist" are returned to the caller.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", path, err)
}

// MakeDirs creates dir and any missing parents. An empty dir is a no-op.
func MakeDirs(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// EnsureParent creates the parent directory of path.
func EnsureParent(path string) error {
	return MakeDirs(filepath.Dir(path))
}

// Ext returns the extension of path without the leading dot.
// "data/prices.csv" yields "csv"; a path without an extension yields "".
func Ext(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WithExt replaces the extension of path with ext (given without the dot).
func WithExt(path, ext string) string {
	trimmed := strings.TrimSuffix(path, filepath.Ext(path))
	if ext == "" {
		return trimmed
	}
	return trimmed + "." + ext
}
