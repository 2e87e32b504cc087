// Package ioutils provides file system utilities for the catalog-downloader.
//
// This package contains functions for:
//   - Existence checks that gate re-fetching and re-downloading
//   - Atomic file writes
//   - Directory creation
package ioutils

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileExists reports whether path exists.
//
// Only a definite "does not exist" answers false; any other stat error
// (permissions, I/O) counts as present so callers never overwrite a file
// they could not inspect.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// WriteFileAtomic writes data to path via a temporary file in the same
// directory followed by a rename.
//
// Readers never observe a partially written file: path either does not
// exist or holds all of data. The file is created with mode 0644.
//
// Example:
//
//	err := WriteFileAtomic("images/21.jpg", imageData)
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
//
// Example:
//
//	err := EnsureDir("images")
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
