package sys

import (
	"sync"

	"github.com/fdlock/fdlock/pkg/logging"
)

// Token owns a just-acquired lock through a duplicated handle. It is the
// single choke point guaranteeing exactly one release per acquisition:
// every acquisition path constructs a Token immediately after Acquire
// succeeds, and whoever defuses it inherits sole responsibility for the
// release.
//
// A Token is consumed in exactly one of two ways:
//
//   - Defuse / DefuseWith transfer handle ownership out without releasing;
//     the consumer (a guard) becomes responsible for the release.
//   - Dispose releases the lock and closes the handle. Error paths, worker
//     abandonment, and any other abnormal unwind end here.
//
// Both are idempotent against each other: once consumed, later calls do
// nothing.
type Token struct {
	mu       sync.Mutex
	handle   *Handle
	consumed bool
}

// NewToken wraps a handle whose lock was just acquired. The post-condition
// of a successful Acquire is the only valid input.
func NewToken(h *Handle) *Token {
	return &Token{handle: h}
}

// Defuse consumes the token and returns the handle without releasing the
// lock. Returns nil if the token was already consumed.
func (t *Token) Defuse() *Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.consumed {
		return nil
	}
	t.consumed = true
	return t.handle
}

// DefuseWith consumes the token and applies fn to the handle, returning
// fn's result. If the token was already consumed, fn is not called.
func (t *Token) DefuseWith(fn func(*Handle) error) error {
	h := t.Defuse()
	if h == nil {
		return nil
	}
	return fn(h)
}

// Dispose releases the lock and closes the duplicated handle, unless the
// token was defused. Release failures cannot propagate from disposal paths;
// they are reported through the logging package and otherwise swallowed.
func (t *Token) Dispose() {
	h := t.Defuse()
	if h == nil {
		return
	}
	if err := Release(h.Fd()); err != nil {
		logging.ReleaseFailure("sys", err)
	}
	if err := h.Close(); err != nil {
		logging.Sys.Warn("close duplicated handle after release: %v", err)
	}
}
