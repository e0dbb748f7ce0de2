//go:build windows
// +build windows

package sys

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/fdlock/fdlock/pkg/logging"
)

// The whole file is represented by the maximum lockable byte range starting
// at offset zero. Lock and unlock must use the same range, and every
// cooperating process must use this convention for the locks to collide.
const lockRange = 0xFFFFFFFF

// lockFlags maps (mode, policy) to exactly one LockFileEx flag combination.
func lockFlags(mode Mode, policy Policy) uint32 {
	var flags uint32
	if mode == Exclusive {
		flags |= windows.LOCKFILE_EXCLUSIVE_LOCK
	}
	if policy == NonBlock {
		flags |= windows.LOCKFILE_FAIL_IMMEDIATELY
	}
	return flags
}

// Acquire takes a whole-file advisory lock on the handle. Non-blocking
// contention (ERROR_LOCK_VIOLATION) is reported as ErrWouldBlock.
func Acquire(fd uintptr, mode Mode, policy Policy) error {
	logging.AcquireAttempt("sys", mode.String(), policy == Block)

	var overlapped windows.Overlapped
	err := windows.LockFileEx(windows.Handle(fd), lockFlags(mode, policy),
		0, lockRange, lockRange, &overlapped)
	if err == nil {
		return nil
	}
	if policy == NonBlock && errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		logging.AcquireContended("sys", mode.String())
		return fmt.Errorf("LockFileEx %s: %w", mode, ErrWouldBlock)
	}
	return fmt.Errorf("LockFileEx %s: %w", mode, err)
}

// Release drops the advisory lock held through the handle.
func Release(fd uintptr) error {
	var overlapped windows.Overlapped
	if err := windows.UnlockFileEx(windows.Handle(fd), 0, lockRange, lockRange, &overlapped); err != nil {
		return fmt.Errorf("UnlockFileEx: %w", err)
	}
	return nil
}
