//go:build solaris || aix
// +build solaris aix

package sys

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"

	"github.com/fdlock/fdlock/pkg/logging"
)

// Solaris and AIX have no flock(2); POSIX fcntl record locks over the whole
// file (l_start=0, l_len=0) provide the equivalent semantics.
//
// Record locks are dropped when the process closes any descriptor for the
// file, not just the locking one. The descriptor a lock was acquired
// through must stay open until Release.

// fcntlLockType maps the lock mode to the fcntl record lock type.
func fcntlLockType(mode Mode) int16 {
	if mode == Exclusive {
		return unix.F_WRLCK
	}
	return unix.F_RDLCK
}

// Acquire takes a whole-file advisory lock on fd. Blocking acquisitions
// retry transparently when interrupted by a signal; non-blocking contention
// is reported as ErrWouldBlock.
func Acquire(fd uintptr, mode Mode, policy Policy) error {
	logging.AcquireAttempt("sys", mode.String(), policy == Block)

	cmd := unix.F_SETLKW
	if policy == NonBlock {
		cmd = unix.F_SETLK
	}
	flock := unix.Flock_t{
		Type:   fcntlLockType(mode),
		Whence: int16(io.SeekStart),
		Start:  0,
		Len:    0,
	}
	for {
		err := unix.FcntlFlock(fd, cmd, &flock)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EINTR) && policy == Block {
			continue
		}
		if policy == NonBlock && (errors.Is(err, unix.EACCES) || errors.Is(err, unix.EAGAIN)) {
			logging.AcquireContended("sys", mode.String())
			return fmt.Errorf("fcntl %s: %w", mode, ErrWouldBlock)
		}
		return fmt.Errorf("fcntl %s: %w", mode, err)
	}
}

// Release drops the advisory lock held through fd.
func Release(fd uintptr) error {
	flock := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: int16(io.SeekStart),
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(fd, unix.F_SETLK, &flock); err != nil {
		return fmt.Errorf("fcntl unlock: %w", err)
	}
	return nil
}
