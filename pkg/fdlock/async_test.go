package fdlock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteContextAcquires(t *testing.T) {
	t.Parallel()
	path := createLockFile(t)

	lock := New(openRW(t, path))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, err := lock.WriteContext(ctx)
	require.NoError(t, err)
	require.NoError(t, g.Unlock())
}

func TestReadContextAcquires(t *testing.T) {
	t.Parallel()
	path := createLockFile(t)

	lock := New(openRW(t, path))
	g, err := lock.ReadContext(context.Background())
	require.NoError(t, err)
	require.NoError(t, g.Unlock())
}

func TestTryWriteContextContention(t *testing.T) {
	t.Parallel()
	path := createLockFile(t)

	holder := New(openRW(t, path))
	hg, err := holder.TryWrite()
	require.NoError(t, err)

	waiter := New(openRW(t, path))
	_, err = waiter.TryWriteContext(context.Background())
	assert.ErrorIs(t, err, ErrWouldBlock)

	require.NoError(t, hg.Unlock())
}

func TestWriteContextTimeoutReportsDeadline(t *testing.T) {
	t.Parallel()
	path := createLockFile(t)

	holder := New(openRW(t, path))
	hg, err := holder.TryWrite()
	require.NoError(t, err)

	waiter := New(openRW(t, path))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = waiter.WriteContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, hg.Unlock())
}

func TestCancelledAcquisitionIsReleased(t *testing.T) {
	t.Parallel()
	path := createLockFile(t)

	holder := New(openRW(t, path))
	hg, err := holder.TryWrite()
	require.NoError(t, err)

	// The waiter gives up while the worker is still parked in the native
	// call behind the holder.
	waiter := New(openRW(t, path))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = waiter.WriteContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Now the worker's acquire goes through, producing a token nobody will
	// consume. Its disposal must leave the file unlocked.
	require.NoError(t, hg.Unlock())

	probe := New(openRW(t, path))
	require.Eventually(t, func() bool {
		g, err := probe.TryWrite()
		if err != nil {
			return false
		}
		_ = g.Unlock()
		return true
	}, 5*time.Second, 20*time.Millisecond,
		"abandoned acquisition was never released")
}

func TestWriteContextAfterCancelContainerReusable(t *testing.T) {
	t.Parallel()
	path := createLockFile(t)

	holder := New(openRW(t, path))
	hg, err := holder.TryWrite()
	require.NoError(t, err)

	waiter := New(openRW(t, path))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = waiter.WriteContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, hg.Unlock())

	// A failed context acquisition must not leave the container occupied.
	require.Eventually(t, func() bool {
		g, err := waiter.TryWrite()
		if err != nil {
			return false
		}
		_ = g.Unlock()
		return true
	}, 5*time.Second, 20*time.Millisecond)
}

func TestOwnedContextVariants(t *testing.T) {
	t.Parallel()
	path := createLockFile(t)

	f := openRW(t, path)
	ctx := context.Background()

	rg, err := LockReadContext(ctx, f)
	require.NoError(t, err)
	require.NoError(t, rg.Unlock())

	wg, err := LockWriteContext(ctx, f)
	require.NoError(t, err)
	require.NoError(t, wg.Unlock())

	trg, err := TryLockReadContext(ctx, f)
	require.NoError(t, err)
	require.NoError(t, trg.Unlock())

	twg, err := TryLockWriteContext(ctx, f)
	require.NoError(t, err)
	require.NoError(t, twg.Unlock())
}

func TestDuplicateFailureClassified(t *testing.T) {
	t.Parallel()

	lock := New(badFd{})
	_, err := lock.TryWrite()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	// Same classification on the offloaded path, before any dispatch
	_, err = lock.WriteContext(context.Background())
	assert.ErrorIs(t, err, ErrDuplicateHandle)
}

// badFd never refers to an open file, so duplication fails up front.
type badFd struct{}

func (badFd) Fd() uintptr { return invalidFd() }

// countingDispatcher runs tasks inline and counts submissions.
type countingDispatcher struct {
	submitted int64
}

func (d *countingDispatcher) Submit(task func()) error {
	atomic.AddInt64(&d.submitted, 1)
	go task()
	return nil
}

func TestSetDispatcher(t *testing.T) {
	// Not parallel: swaps the package dispatcher.
	path := createLockFile(t)

	d := &countingDispatcher{}
	SetDispatcher(d)
	defer SetDispatcher(nil)

	lock := New(openRW(t, path))
	g, err := lock.WriteContext(context.Background())
	require.NoError(t, err)
	require.NoError(t, g.Unlock())

	assert.EqualValues(t, 1, atomic.LoadInt64(&d.submitted))
}
