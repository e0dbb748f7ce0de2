// Package fsutil provides filesystem helpers for the fdlock CLI: opening
// lock files with conventional modes and maintaining the advisory owner-info
// sidecar shown by `fdlock info`.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Lock files are created world-readable so other processes can probe and
// read the owner sidecar.
const lockFileMode = 0o644

// OpenLockFile opens path for locking, creating it if absent. The file is
// opened read/write so the same handle serves shared and exclusive locks
// and guard I/O.
func OpenLockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}
	return f, nil
}

// DirExists checks if a path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// EnsureParentDir creates the parent directory of path if it is missing.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if DirExists(dir) {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory %s: %w", dir, err)
	}
	return nil
}
