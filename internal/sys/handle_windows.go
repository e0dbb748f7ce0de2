//go:build windows
// +build windows

package sys

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Duplicate creates an independently owned handle referencing the same
// underlying open file as fd. The duplicate shares the original's lock-table
// entry, so it duplicates the handle, never the lock.
func Duplicate(fd uintptr) (*Handle, error) {
	process := windows.CurrentProcess()
	var dup windows.Handle
	err := windows.DuplicateHandle(process, windows.Handle(fd), process, &dup,
		0, false, windows.DUPLICATE_SAME_ACCESS)
	if err != nil {
		return nil, fmt.Errorf("%w: DuplicateHandle: %w", ErrDuplicateHandle, err)
	}
	return newHandle(uintptr(dup)), nil
}

// closeHandle closes the raw handle behind a Handle.
func closeHandle(fd uintptr) error {
	return windows.CloseHandle(windows.Handle(fd))
}
