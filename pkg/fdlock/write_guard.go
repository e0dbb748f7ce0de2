package fdlock

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// WriteGuard represents a held exclusive lock on the file wrapped by an
// RWLock. It exposes read/write access to the underlying stream.
//
// The guard must be released with Unlock (or Close) when done. Release
// happens at most once regardless of how many times either is called.
type WriteGuard struct {
	lock *RWLock
	once sync.Once
	err  error
}

// Read delegates to the wrapped file. Returns errors.ErrUnsupported if the
// wrapped object does not implement io.Reader.
func (g *WriteGuard) Read(p []byte) (int, error) {
	r, ok := g.lock.f.(io.Reader)
	if !ok {
		return 0, fmt.Errorf("read through guard: %w", errors.ErrUnsupported)
	}
	return r.Read(p)
}

// ReadAt delegates to the wrapped file. Returns errors.ErrUnsupported if
// the wrapped object does not implement io.ReaderAt.
func (g *WriteGuard) ReadAt(p []byte, off int64) (int, error) {
	r, ok := g.lock.f.(io.ReaderAt)
	if !ok {
		return 0, fmt.Errorf("read-at through guard: %w", errors.ErrUnsupported)
	}
	return r.ReadAt(p, off)
}

// Seek delegates to the wrapped file. Returns errors.ErrUnsupported if the
// wrapped object does not implement io.Seeker.
func (g *WriteGuard) Seek(offset int64, whence int) (int64, error) {
	s, ok := g.lock.f.(io.Seeker)
	if !ok {
		return 0, fmt.Errorf("seek through guard: %w", errors.ErrUnsupported)
	}
	return s.Seek(offset, whence)
}

// Write delegates to the wrapped file. Returns errors.ErrUnsupported if the
// wrapped object does not implement io.Writer.
func (g *WriteGuard) Write(p []byte) (int, error) {
	w, ok := g.lock.f.(io.Writer)
	if !ok {
		return 0, fmt.Errorf("write through guard: %w", errors.ErrUnsupported)
	}
	return w.Write(p)
}

// WriteAt delegates to the wrapped file. Returns errors.ErrUnsupported if
// the wrapped object does not implement io.WriterAt.
func (g *WriteGuard) WriteAt(p []byte, off int64) (int, error) {
	w, ok := g.lock.f.(io.WriterAt)
	if !ok {
		return 0, fmt.Errorf("write-at through guard: %w", errors.ErrUnsupported)
	}
	return w.WriteAt(p, off)
}

// Truncate delegates to the wrapped file. Returns errors.ErrUnsupported if
// the wrapped object does not provide Truncate.
func (g *WriteGuard) Truncate(size int64) error {
	t, ok := g.lock.f.(interface{ Truncate(int64) error })
	if !ok {
		return fmt.Errorf("truncate through guard: %w", errors.ErrUnsupported)
	}
	return t.Truncate(size)
}

// Sync delegates to the wrapped file. Returns errors.ErrUnsupported if the
// wrapped object does not provide Sync.
func (g *WriteGuard) Sync() error {
	s, ok := g.lock.f.(interface{ Sync() error })
	if !ok {
		return fmt.Errorf("sync through guard: %w", errors.ErrUnsupported)
	}
	return s.Sync()
}

// Unlock releases the exclusive lock. The first call performs the release
// and returns its result; later calls do nothing and return the same
// result.
func (g *WriteGuard) Unlock() error {
	g.once.Do(func() {
		g.err = g.lock.unlock()
	})
	return g.err
}

// Close releases the lock, making the guard usable with defer. Equivalent
// to Unlock.
func (g *WriteGuard) Close() error {
	return g.Unlock()
}
