package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmitRuns(t *testing.T) {
	t.Parallel()
	pool := NewPool(2)
	defer pool.Stop(context.Background()) //nolint:errcheck // Cleanup only

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestPoolPanicRecovery(t *testing.T) {
	t.Parallel()
	pool := NewPool(1)
	defer pool.Stop(context.Background()) //nolint:errcheck // Cleanup only

	require.NoError(t, pool.Submit(func() { panic("boom") }))

	// The worker must survive the panic and keep serving tasks
	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not survive panic")
	}

	assert.EqualValues(t, 1, pool.Panicked())
}

func TestPoolCounters(t *testing.T) {
	t.Parallel()
	pool := NewPool(2)

	const tasks = 5
	var ran int64
	for i := 0; i < tasks; i++ {
		require.NoError(t, pool.Submit(func() { atomic.AddInt64(&ran, 1) }))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))

	assert.EqualValues(t, tasks, atomic.LoadInt64(&ran))
	assert.EqualValues(t, tasks, pool.Submitted())
	assert.EqualValues(t, tasks, pool.Completed())
}

func TestPoolStopIdempotentAndRejectsSubmit(t *testing.T) {
	t.Parallel()
	pool := NewPool(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Stop(ctx))
	require.NoError(t, pool.Stop(ctx))

	err := pool.Submit(func() {})
	require.Error(t, err)
}

func TestPoolSizeClamped(t *testing.T) {
	t.Parallel()

	// Non-positive sizes fall back to the CPU count; the pool must work
	pool := NewPool(-3)
	defer pool.Stop(context.Background()) //nolint:errcheck // Cleanup only

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestDefaultPoolShared(t *testing.T) {
	t.Parallel()

	assert.Same(t, Default(), Default())
}
