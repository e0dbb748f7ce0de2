package fdlock

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/fdlock/fdlock/internal/sys"
)

// Owned acquisition entry points take charge of the file for the guard's
// lifetime without requiring a long-lived RWLock container. On failure the
// caller's file is untouched and still usable.

// LockRead acquires a shared lock on f, blocking until available, and
// returns a guard owning the file for the duration of the lock.
func LockRead(f File) (*OwnedReadGuard, error) {
	h, err := acquireOwned(f, sys.Shared, sys.Block)
	if err != nil {
		return nil, err
	}
	return &OwnedReadGuard{f: f, h: h}, nil
}

// TryLockRead acquires a shared lock on f without blocking. Returns
// ErrWouldBlock if the lock is held elsewhere.
func TryLockRead(f File) (*OwnedReadGuard, error) {
	h, err := acquireOwned(f, sys.Shared, sys.NonBlock)
	if err != nil {
		return nil, err
	}
	return &OwnedReadGuard{f: f, h: h}, nil
}

// LockWrite acquires an exclusive lock on f, blocking until available, and
// returns a guard owning the file for the duration of the lock.
func LockWrite(f File) (*OwnedWriteGuard, error) {
	h, err := acquireOwned(f, sys.Exclusive, sys.Block)
	if err != nil {
		return nil, err
	}
	return &OwnedWriteGuard{f: f, h: h}, nil
}

// TryLockWrite acquires an exclusive lock on f without blocking. Returns
// ErrWouldBlock if any lock is held elsewhere.
func TryLockWrite(f File) (*OwnedWriteGuard, error) {
	h, err := acquireOwned(f, sys.Exclusive, sys.NonBlock)
	if err != nil {
		return nil, err
	}
	return &OwnedWriteGuard{f: f, h: h}, nil
}

// acquireOwned routes an owned acquisition through a lock token and hands
// the duplicated handle to the guard. The guard keeps it open until Unlock;
// closing it earlier would drop the lock on platforms where record locks
// die with any descriptor for the file.
func acquireOwned(f File, mode sys.Mode, policy sys.Policy) (*sys.Handle, error) {
	tok, err := acquireToken(f.Fd(), mode, policy)
	if err != nil {
		return nil, err
	}
	return tok.Defuse(), nil
}

// OwnedReadGuard represents a held shared lock owning its file. Read-only
// access is exposed while the guard is live; Unlock hands the still-open
// file back via File.
type OwnedReadGuard struct {
	f    File
	h    *sys.Handle
	once sync.Once
	err  error
}

// Read delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not implement io.Reader.
func (g *OwnedReadGuard) Read(p []byte) (int, error) {
	r, ok := g.f.(io.Reader)
	if !ok {
		return 0, fmt.Errorf("read through guard: %w", errors.ErrUnsupported)
	}
	return r.Read(p)
}

// ReadAt delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not implement io.ReaderAt.
func (g *OwnedReadGuard) ReadAt(p []byte, off int64) (int, error) {
	r, ok := g.f.(io.ReaderAt)
	if !ok {
		return 0, fmt.Errorf("read-at through guard: %w", errors.ErrUnsupported)
	}
	return r.ReadAt(p, off)
}

// Seek delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not implement io.Seeker.
func (g *OwnedReadGuard) Seek(offset int64, whence int) (int64, error) {
	s, ok := g.f.(io.Seeker)
	if !ok {
		return 0, fmt.Errorf("seek through guard: %w", errors.ErrUnsupported)
	}
	return s.Seek(offset, whence)
}

// File returns the owned file. The lock is shared while the guard is live,
// so mutating the file through this reference violates the protocol.
func (g *OwnedReadGuard) File() File {
	return g.f
}

// Unlock releases the shared lock. The file remains open and usable by the
// caller. The first call performs the release and returns its result;
// later calls do nothing and return the same result.
func (g *OwnedReadGuard) Unlock() error {
	g.once.Do(func() {
		g.err = releaseHandle(g.h)
	})
	return g.err
}

// Close releases the lock, making the guard usable with defer. Equivalent
// to Unlock.
func (g *OwnedReadGuard) Close() error {
	return g.Unlock()
}

// OwnedWriteGuard represents a held exclusive lock owning its file.
// Read/write access is exposed while the guard is live; Unlock hands the
// still-open file back via File.
type OwnedWriteGuard struct {
	f    File
	h    *sys.Handle
	once sync.Once
	err  error
}

// Read delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not implement io.Reader.
func (g *OwnedWriteGuard) Read(p []byte) (int, error) {
	r, ok := g.f.(io.Reader)
	if !ok {
		return 0, fmt.Errorf("read through guard: %w", errors.ErrUnsupported)
	}
	return r.Read(p)
}

// Seek delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not implement io.Seeker.
func (g *OwnedWriteGuard) Seek(offset int64, whence int) (int64, error) {
	s, ok := g.f.(io.Seeker)
	if !ok {
		return 0, fmt.Errorf("seek through guard: %w", errors.ErrUnsupported)
	}
	return s.Seek(offset, whence)
}

// Write delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not implement io.Writer.
func (g *OwnedWriteGuard) Write(p []byte) (int, error) {
	w, ok := g.f.(io.Writer)
	if !ok {
		return 0, fmt.Errorf("write through guard: %w", errors.ErrUnsupported)
	}
	return w.Write(p)
}

// WriteAt delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not implement io.WriterAt.
func (g *OwnedWriteGuard) WriteAt(p []byte, off int64) (int, error) {
	w, ok := g.f.(io.WriterAt)
	if !ok {
		return 0, fmt.Errorf("write-at through guard: %w", errors.ErrUnsupported)
	}
	return w.WriteAt(p, off)
}

// Sync delegates to the owned file. Returns errors.ErrUnsupported if the
// file does not provide Sync.
func (g *OwnedWriteGuard) Sync() error {
	s, ok := g.f.(interface{ Sync() error })
	if !ok {
		return fmt.Errorf("sync through guard: %w", errors.ErrUnsupported)
	}
	return s.Sync()
}

// File returns the owned file.
func (g *OwnedWriteGuard) File() File {
	return g.f
}

// Unlock releases the exclusive lock. The file remains open and usable by
// the caller. The first call performs the release and returns its result;
// later calls do nothing and return the same result.
func (g *OwnedWriteGuard) Unlock() error {
	g.once.Do(func() {
		g.err = releaseHandle(g.h)
	})
	return g.err
}

// releaseHandle drops the lock held through a retained duplicate and
// closes it.
func releaseHandle(h *sys.Handle) error {
	if h == nil {
		return nil
	}
	err := sys.Release(h.Fd())
	if cerr := h.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Close releases the lock, making the guard usable with defer. Equivalent
// to Unlock.
func (g *OwnedWriteGuard) Close() error {
	return g.Unlock()
}
