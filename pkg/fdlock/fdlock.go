// Package fdlock provides advisory reader-writer locking over an open file,
// coordinating access between cooperating processes.
//
// Advisory locks are a mutual-exclusion signal, not access control: only
// processes that opt into the same protocol are coordinated, and nothing
// stops a non-cooperating process from touching the file. The lock always
// covers the whole file; byte ranges are not supported.
//
// A lock is either shared (any number of holders, read access) or exclusive
// (single holder, read/write access). Every acquisition entry point comes in
// a blocking and a non-blocking (Try) form; non-blocking contention is
// reported as ErrWouldBlock on every platform. The Context variants offload
// the blocking syscall onto a worker pool so a context-aware caller is never
// stalled in the native call itself.
//
// Holding a shared lock and requesting an exclusive one through a second
// handle of the same process is platform-defined native behavior (it
// typically succeeds as an in-place upgrade); this package inherits it
// rather than emulating anything.
package fdlock

import (
	"errors"
	"sync"

	"github.com/fdlock/fdlock/internal/sys"
)

// File is the capability a lockable object must provide: borrowing its
// native descriptor. *os.File satisfies it. The descriptor must stay valid
// for the lifetime of the RWLock.
type File interface {
	Fd() uintptr
}

// Errors surfaced by acquisition entry points.
var (
	// ErrWouldBlock reports that a non-blocking acquisition found the lock
	// held elsewhere. Canonical across platforms.
	ErrWouldBlock = sys.ErrWouldBlock

	// ErrDuplicateHandle reports that the native handle could not be
	// duplicated. It occurs before any lock attempt; the wrapped file is
	// untouched and still usable.
	ErrDuplicateHandle = sys.ErrDuplicateHandle

	// ErrGuardHeld reports that this RWLock already has a live guard (or an
	// acquisition in flight). Only one guard may exist per container at a
	// time; contention between containers or processes is reported as
	// ErrWouldBlock instead.
	ErrGuardHeld = errors.New("lock container already has a live guard")
)

// Container lock states. Acquisitions in flight count as occupied so that a
// Try call never waits on an in-process acquisition.
const (
	stateUnlocked = iota
	stateAcquiring
	stateHeld
)

// RWLock owns an open file across the unlocked periods between acquisitions
// and is the object guards are handed out from. The zero value is not
// usable; construct with New.
//
// RWLock methods are safe for concurrent use, but only one guard can be
// live per RWLock at any time. To hold several shared locks on one file
// within a process, wrap independently opened handles in separate RWLocks.
type RWLock struct {
	f      File
	mu     sync.Mutex
	state  int
	handle *sys.Handle
}

// New wraps an open file in a lock container. The container borrows the
// file; the lock itself is held through a duplicated handle, so it stays
// held until the guard's Unlock even if the file is closed first, though
// guard I/O fails once it is.
func New(f File) *RWLock {
	return &RWLock{f: f}
}

// File returns the wrapped file.
func (l *RWLock) File() File {
	return l.f
}

// Read acquires a shared lock, blocking until it is available, and returns
// a guard exposing read-only access to the wrapped file.
func (l *RWLock) Read() (*ReadGuard, error) {
	if err := l.acquire(sys.Shared, sys.Block); err != nil {
		return nil, err
	}
	return &ReadGuard{lock: l}, nil
}

// TryRead acquires a shared lock without blocking. Returns ErrWouldBlock
// if the lock is held elsewhere.
func (l *RWLock) TryRead() (*ReadGuard, error) {
	if err := l.acquire(sys.Shared, sys.NonBlock); err != nil {
		return nil, err
	}
	return &ReadGuard{lock: l}, nil
}

// Write acquires an exclusive lock, blocking until it is available, and
// returns a guard exposing read/write access to the wrapped file.
func (l *RWLock) Write() (*WriteGuard, error) {
	if err := l.acquire(sys.Exclusive, sys.Block); err != nil {
		return nil, err
	}
	return &WriteGuard{lock: l}, nil
}

// TryWrite acquires an exclusive lock without blocking. Returns
// ErrWouldBlock if any lock is held elsewhere.
func (l *RWLock) TryWrite() (*WriteGuard, error) {
	if err := l.acquire(sys.Exclusive, sys.NonBlock); err != nil {
		return nil, err
	}
	return &WriteGuard{lock: l}, nil
}

// acquire performs a synchronous acquisition through a lock token.
func (l *RWLock) acquire(mode sys.Mode, policy sys.Policy) error {
	if err := l.begin(); err != nil {
		return err
	}
	tok, err := acquireToken(l.f.Fd(), mode, policy)
	if err != nil {
		l.abort()
		return err
	}
	l.adoptToken(tok)
	return nil
}

// begin marks an acquisition in flight. Fails if a guard is live or another
// acquisition is already in flight on this container.
func (l *RWLock) begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != stateUnlocked {
		return ErrGuardHeld
	}
	l.state = stateAcquiring
	return nil
}

// abort rolls back a failed acquisition.
func (l *RWLock) abort() {
	l.mu.Lock()
	l.state = stateUnlocked
	l.mu.Unlock()
}

// adoptToken consumes a token into container-held state. The duplicated
// handle is retained for the guard's lifetime and the lock is released
// through it: closing it early would drop the lock on platforms where
// record locks die with any descriptor for the file.
func (l *RWLock) adoptToken(tok *sys.Token) {
	l.mu.Lock()
	l.handle = tok.Defuse()
	l.state = stateHeld
	l.mu.Unlock()
}

// unlock releases the held lock through the retained handle and closes it.
// Called exactly once per guard via the guard's sync.Once.
func (l *RWLock) unlock() error {
	l.mu.Lock()
	h := l.handle
	l.handle = nil
	l.state = stateUnlocked
	l.mu.Unlock()
	return releaseHandle(h)
}

// acquireToken duplicates fd, acquires on the duplicate, and arms a token
// owning it. Every acquisition path in the package routes through this so
// that the token single-handedly guarantees one release per acquisition.
func acquireToken(fd uintptr, mode sys.Mode, policy sys.Policy) (*sys.Token, error) {
	h, err := sys.Duplicate(fd)
	if err != nil {
		return nil, err
	}
	if err := sys.Acquire(h.Fd(), mode, policy); err != nil {
		_ = h.Close()
		return nil, err
	}
	return sys.NewToken(h), nil
}
