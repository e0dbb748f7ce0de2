package fdlock

import (
	"context"
	"sync"

	"github.com/fdlock/fdlock/internal/sys"
	"github.com/fdlock/fdlock/internal/workers"
	"github.com/fdlock/fdlock/pkg/logging"
)

// Dispatcher submits a blocking closure for execution off the caller's
// goroutine. The Context acquisition entry points use it to keep the
// uninterruptible native lock syscall out of the calling goroutine.
type Dispatcher interface {
	Submit(task func()) error
}

var (
	dispatcherMu sync.RWMutex
	dispatcher   Dispatcher
)

// SetDispatcher injects the dispatcher used by the Context entry points.
// Passing nil restores the default shared worker pool.
func SetDispatcher(d Dispatcher) {
	dispatcherMu.Lock()
	dispatcher = d
	dispatcherMu.Unlock()
}

// currentDispatcher returns the injected dispatcher or the shared pool.
func currentDispatcher() Dispatcher {
	dispatcherMu.RLock()
	d := dispatcher
	dispatcherMu.RUnlock()
	if d != nil {
		return d
	}
	return workers.Default()
}

// acquireResult crosses the one-shot channel from worker to waiter. At most
// one of tok and err is set.
type acquireResult struct {
	tok *sys.Token
	err error
}

// acquireAsync offloads an acquisition onto a worker and waits for the
// result or ctx, whichever comes first.
//
// The handle is duplicated up front so the worker operates on its own
// independently owned reference; duplication failure returns immediately
// without dispatching anything. Cancelling ctx after dispatch does not
// cancel the in-flight native call; it only abandons the result. A reaper
// goroutine then consumes the eventual result and disposes the token, so an
// acquisition that completes after abandonment is released rather than
// leaked.
func acquireAsync(ctx context.Context, fd uintptr, mode sys.Mode, policy sys.Policy) (*sys.Token, error) {
	h, err := sys.Duplicate(fd)
	if err != nil {
		return nil, err
	}

	ch := make(chan acquireResult, 1)
	submitErr := currentDispatcher().Submit(func() {
		if err := sys.Acquire(h.Fd(), mode, policy); err != nil {
			_ = h.Close()
			ch <- acquireResult{err: err}
			return
		}
		ch <- acquireResult{tok: sys.NewToken(h)}
	})
	if submitErr != nil {
		_ = h.Close()
		return nil, submitErr
	}

	select {
	case res := <-ch:
		return res.tok, res.err
	case <-ctx.Done():
		go reapAbandoned(ch)
		return nil, ctx.Err()
	}
}

// reapAbandoned drains the one-shot channel after the waiter gave up. If
// the worker did acquire the lock, the unconsumed token is disposed here;
// the file ends up observably unlocked even though no guard was ever seen.
func reapAbandoned(ch <-chan acquireResult) {
	res := <-ch
	if res.tok != nil {
		logging.Bridge.Debug("releasing lock acquired after caller abandoned the wait")
		res.tok.Dispose()
	}
}

// ReadContext acquires a shared lock, waiting on a worker so the calling
// goroutine observes ctx. Cancellation abandons the wait; see the package
// documentation for the release guarantee.
//
// An abandoned worker keeps waiting on a duplicate of this container's
// descriptor. Re-acquiring through the same container before that wait
// resolves shares the lock entry with it, so the abandoned operation's
// cleanup can release the new guard's lock. Re-acquire through a freshly
// opened descriptor when this matters.
func (l *RWLock) ReadContext(ctx context.Context) (*ReadGuard, error) {
	if err := l.acquireCtx(ctx, sys.Shared, sys.Block); err != nil {
		return nil, err
	}
	return &ReadGuard{lock: l}, nil
}

// TryReadContext acquires a shared lock without blocking in the native
// call, still offloaded so a saturated worker pool cannot stall the caller
// past ctx.
func (l *RWLock) TryReadContext(ctx context.Context) (*ReadGuard, error) {
	if err := l.acquireCtx(ctx, sys.Shared, sys.NonBlock); err != nil {
		return nil, err
	}
	return &ReadGuard{lock: l}, nil
}

// WriteContext acquires an exclusive lock, waiting on a worker so the
// calling goroutine observes ctx. The caveat on ReadContext about
// re-acquiring through the same container after cancellation applies here
// as well.
func (l *RWLock) WriteContext(ctx context.Context) (*WriteGuard, error) {
	if err := l.acquireCtx(ctx, sys.Exclusive, sys.Block); err != nil {
		return nil, err
	}
	return &WriteGuard{lock: l}, nil
}

// TryWriteContext acquires an exclusive lock without blocking in the
// native call.
func (l *RWLock) TryWriteContext(ctx context.Context) (*WriteGuard, error) {
	if err := l.acquireCtx(ctx, sys.Exclusive, sys.NonBlock); err != nil {
		return nil, err
	}
	return &WriteGuard{lock: l}, nil
}

// acquireCtx performs an offloaded acquisition for a borrowed guard.
func (l *RWLock) acquireCtx(ctx context.Context, mode sys.Mode, policy sys.Policy) error {
	if err := l.begin(); err != nil {
		return err
	}
	tok, err := acquireAsync(ctx, l.f.Fd(), mode, policy)
	if err != nil {
		l.abort()
		return err
	}
	l.adoptToken(tok)
	return nil
}

// LockReadContext is the owned counterpart of ReadContext.
func LockReadContext(ctx context.Context, f File) (*OwnedReadGuard, error) {
	h, err := acquireOwnedCtx(ctx, f, sys.Shared, sys.Block)
	if err != nil {
		return nil, err
	}
	return &OwnedReadGuard{f: f, h: h}, nil
}

// TryLockReadContext is the owned counterpart of TryReadContext.
func TryLockReadContext(ctx context.Context, f File) (*OwnedReadGuard, error) {
	h, err := acquireOwnedCtx(ctx, f, sys.Shared, sys.NonBlock)
	if err != nil {
		return nil, err
	}
	return &OwnedReadGuard{f: f, h: h}, nil
}

// LockWriteContext is the owned counterpart of WriteContext.
func LockWriteContext(ctx context.Context, f File) (*OwnedWriteGuard, error) {
	h, err := acquireOwnedCtx(ctx, f, sys.Exclusive, sys.Block)
	if err != nil {
		return nil, err
	}
	return &OwnedWriteGuard{f: f, h: h}, nil
}

// TryLockWriteContext is the owned counterpart of TryWriteContext.
func TryLockWriteContext(ctx context.Context, f File) (*OwnedWriteGuard, error) {
	h, err := acquireOwnedCtx(ctx, f, sys.Exclusive, sys.NonBlock)
	if err != nil {
		return nil, err
	}
	return &OwnedWriteGuard{f: f, h: h}, nil
}

// acquireOwnedCtx performs an offloaded acquisition for an owned guard and
// hands it the duplicated handle to release through. On failure the
// caller's file is untouched.
func acquireOwnedCtx(ctx context.Context, f File, mode sys.Mode, policy sys.Policy) (*sys.Handle, error) {
	tok, err := acquireAsync(ctx, f.Fd(), mode, policy)
	if err != nil {
		return nil, err
	}
	return tok.Defuse(), nil
}
