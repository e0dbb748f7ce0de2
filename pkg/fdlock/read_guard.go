package fdlock

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ReadGuard represents a held shared lock on the file wrapped by an RWLock.
// It exposes read-only access to the underlying stream; mutating operations
// are deliberately absent because other processes may be reading the file
// under their own shared locks.
//
// The guard must be released with Unlock (or Close) when done. Release
// happens at most once regardless of how many times either is called.
type ReadGuard struct {
	lock *RWLock
	once sync.Once
	err  error
}

// Read delegates to the wrapped file. Returns errors.ErrUnsupported if the
// wrapped object does not implement io.Reader.
func (g *ReadGuard) Read(p []byte) (int, error) {
	r, ok := g.lock.f.(io.Reader)
	if !ok {
		return 0, fmt.Errorf("read through guard: %w", errors.ErrUnsupported)
	}
	return r.Read(p)
}

// ReadAt delegates to the wrapped file. Returns errors.ErrUnsupported if
// the wrapped object does not implement io.ReaderAt.
func (g *ReadGuard) ReadAt(p []byte, off int64) (int, error) {
	r, ok := g.lock.f.(io.ReaderAt)
	if !ok {
		return 0, fmt.Errorf("read-at through guard: %w", errors.ErrUnsupported)
	}
	return r.ReadAt(p, off)
}

// Seek delegates to the wrapped file. Returns errors.ErrUnsupported if the
// wrapped object does not implement io.Seeker.
func (g *ReadGuard) Seek(offset int64, whence int) (int64, error) {
	s, ok := g.lock.f.(io.Seeker)
	if !ok {
		return 0, fmt.Errorf("seek through guard: %w", errors.ErrUnsupported)
	}
	return s.Seek(offset, whence)
}

// Unlock releases the shared lock. The first call performs the release and
// returns its result; later calls do nothing and return the same result.
func (g *ReadGuard) Unlock() error {
	g.once.Do(func() {
		g.err = g.lock.unlock()
	})
	return g.err
}

// Close releases the lock, making the guard usable with defer. Equivalent
// to Unlock.
func (g *ReadGuard) Close() error {
	return g.Unlock()
}
