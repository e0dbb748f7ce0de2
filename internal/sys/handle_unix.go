//go:build unix
// +build unix

package sys

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Duplicate creates an independently owned descriptor referencing the same
// underlying open file as fd. The duplicate shares the original's lock-table
// entry, so it duplicates the handle, never the lock.
func Duplicate(fd uintptr) (*Handle, error) {
	dupFd, err := unix.Dup(int(fd))
	if err != nil {
		return nil, fmt.Errorf("%w: dup: %w", ErrDuplicateHandle, err)
	}
	// Locks survive exec through the original descriptor; the duplicate is
	// internal plumbing and must not leak into child processes.
	unix.CloseOnExec(dupFd)
	return newHandle(uintptr(dupFd)), nil
}

// closeHandle closes the raw descriptor behind a Handle.
func closeHandle(fd uintptr) error {
	return unix.Close(int(fd))
}
