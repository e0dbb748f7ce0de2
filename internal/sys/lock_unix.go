//go:build unix && !solaris && !aix
// +build unix,!solaris,!aix

package sys

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/fdlock/fdlock/pkg/logging"
)

// flockOp maps (mode, policy) to exactly one flock(2) operation code.
func flockOp(mode Mode, policy Policy) int {
	op := unix.LOCK_SH
	if mode == Exclusive {
		op = unix.LOCK_EX
	}
	if policy == NonBlock {
		op |= unix.LOCK_NB
	}
	return op
}

// Acquire takes a whole-file advisory lock on fd. Blocking acquisitions
// retry transparently when interrupted by a signal; non-blocking contention
// is reported as ErrWouldBlock.
func Acquire(fd uintptr, mode Mode, policy Policy) error {
	logging.AcquireAttempt("sys", mode.String(), policy == Block)

	op := flockOp(mode, policy)
	for {
		err := unix.Flock(int(fd), op)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EINTR) && policy == Block {
			continue
		}
		if policy == NonBlock && (errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)) {
			logging.AcquireContended("sys", mode.String())
			return fmt.Errorf("flock %s: %w", mode, ErrWouldBlock)
		}
		return fmt.Errorf("flock %s: %w", mode, err)
	}
}

// Release drops the advisory lock held through fd.
func Release(fd uintptr) error {
	for {
		err := unix.Flock(int(fd), unix.LOCK_UN)
		if err == nil {
			return nil
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return fmt.Errorf("flock unlock: %w", err)
	}
}
