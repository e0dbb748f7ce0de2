// Package sys provides the native advisory whole-file locking primitive and
// the owned-handle plumbing the higher-level guard types are built on.
//
// Two incompatible native APIs are normalized into one contract: flock(2)
// (fcntl F_SETLK on platforms without flock) on Unix, and LockFileEx/
// UnlockFileEx on Windows. Contention under a non-blocking request is
// reported as ErrWouldBlock on every platform, so callers never branch on
// raw OS error codes.
package sys

import (
	"errors"
	"fmt"
	"sync"
)

// Mode selects shared (read) or exclusive (write) lock semantics.
type Mode int

// Mode constants represent the two advisory lock modes
const (
	Shared Mode = iota
	Exclusive
)

// String returns the string representation of the lock mode
func (m Mode) String() string {
	switch m {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// Policy selects whether a contended acquisition waits or returns immediately.
type Policy int

// Policy constants represent the two acquisition policies
const (
	Block Policy = iota
	NonBlock
)

// String returns the string representation of the policy
func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case NonBlock:
		return "non-block"
	default:
		return "unknown"
	}
}

// Sentinel errors returned by the native layer.
var (
	// ErrWouldBlock is the canonical contention error for non-blocking
	// acquisitions. The raw OS error differs per platform (EWOULDBLOCK,
	// EACCES, ERROR_LOCK_VIOLATION); all of them are reclassified to this.
	ErrWouldBlock = errors.New("file lock would block")

	// ErrDuplicateHandle wraps failures to duplicate an open file handle.
	// It occurs before any lock attempt, so the caller's file is untouched.
	ErrDuplicateHandle = errors.New("duplicate file handle")
)

// Handle is an independently owned duplicate of an open file descriptor.
//
// Duplicated handles reference the same underlying open file object as the
// original, so they share one entry in the OS lock table: a lock acquired
// through the duplicate is the same lock as one acquired through the
// original, and releasing through either releases it for both.
type Handle struct {
	mu     sync.Mutex
	fd     uintptr
	closed bool
}

// newHandle wraps a freshly duplicated descriptor.
func newHandle(fd uintptr) *Handle {
	return &Handle{fd: fd}
}

// Fd returns the underlying native descriptor.
func (h *Handle) Fd() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fd
}

// Close releases the duplicated descriptor. It is safe to call more than
// once; subsequent calls return nil.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if err := closeHandle(h.fd); err != nil {
		return fmt.Errorf("close duplicated handle: %w", err)
	}
	return nil
}
