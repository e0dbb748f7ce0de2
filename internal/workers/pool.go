// Package workers provides the blocking-capable worker pool the asynchronous
// lock bridge dispatches native acquisitions onto. Lock syscalls block the
// thread they run on and cannot be interrupted, so they are kept off the
// caller's goroutine and drained here instead.
package workers

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gammazero/workerpool"

	"github.com/fdlock/fdlock/pkg/logging"
)

// Pool runs blocking closures on a bounded set of workers.
type Pool struct {
	pool      *workerpool.WorkerPool
	logger    *logging.Logger
	submitted int64
	completed int64
	panicked  int64
	mu        sync.Mutex
	stopped   bool
}

// NewPool creates a pool with the given number of workers. Sizes below one
// are clamped to the number of CPUs.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{
		pool:   workerpool.New(size),
		logger: logging.Workers,
	}
}

// Submit schedules task on a worker. A task that panics is logged and
// counted; the worker survives. Returns an error if the pool was stopped.
func (p *Pool) Submit(task func()) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return fmt.Errorf("worker pool is stopped")
	}
	p.mu.Unlock()

	atomic.AddInt64(&p.submitted, 1)
	p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				atomic.AddInt64(&p.panicked, 1)
				p.logger.Error("worker panic: %v", r)
			}
			atomic.AddInt64(&p.completed, 1)
		}()
		task()
	})
	return nil
}

// Stop waits for queued tasks to drain, bounded by ctx. After Stop returns,
// Submit fails.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.pool.StopWait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop timeout: %w", ctx.Err())
	}
}

// QueueDepth returns the number of tasks waiting for a worker.
func (p *Pool) QueueDepth() int {
	return p.pool.WaitingQueueSize()
}

// Submitted returns the number of tasks accepted by Submit.
func (p *Pool) Submitted() int64 {
	return atomic.LoadInt64(&p.submitted)
}

// Completed returns the number of tasks that finished, including panics.
func (p *Pool) Completed() int64 {
	return atomic.LoadInt64(&p.completed)
}

// Panicked returns the number of tasks that panicked.
func (p *Pool) Panicked() int64 {
	return atomic.LoadInt64(&p.panicked)
}

// Shared default pool, sized lazily on first use.
var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// Default returns the process-wide shared pool used when no dispatcher is
// injected.
func Default() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(0)
	})
	return defaultPool
}
