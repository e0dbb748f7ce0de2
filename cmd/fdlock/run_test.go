package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fdlock/fdlock/internal/config"
	"github.com/fdlock/fdlock/pkg/fdlock"
)

func TestExitCodeErrorUnwraps(t *testing.T) {
	t.Parallel()

	inner := errors.New("held elsewhere")
	err := &exitCodeError{code: exitContention, err: inner}

	assert.Equal(t, "held elsewhere", err.Error())
	assert.ErrorIs(t, err, inner)

	var ec *exitCodeError
	wrapped := fmt.Errorf("outer: %w", err)
	require.ErrorAs(t, wrapped, &ec)
	assert.Equal(t, exitContention, ec.code)
}

func TestAcquireModes(t *testing.T) {
	t.Parallel()

	open := func(t *testing.T) *os.File {
		t.Helper()
		path := filepath.Join(t.TempDir(), "test.lock")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
		require.NoError(t, err)
		t.Cleanup(func() { f.Close() })
		return f
	}

	tests := []struct {
		name   string
		shared bool
		cfg    config.Config
	}{
		{name: "blocking exclusive"},
		{name: "blocking shared", shared: true},
		{name: "nonblocking exclusive", cfg: config.Config{NonBlocking: true}},
		{name: "nonblocking shared", shared: true, cfg: config.Config{NonBlocking: true}},
		{name: "bounded exclusive", cfg: config.Config{LockTimeout: time.Second}},
		{name: "bounded shared", shared: true, cfg: config.Config{LockTimeout: time.Second}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := open(t)

			guard, err := acquire(f, tt.shared, &tt.cfg)
			require.NoError(t, err)
			require.NoError(t, guard.Unlock())
		})
	}
}

func TestAcquireNonblockContention(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.lock")
	holder, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer holder.Close() //nolint:errcheck // Cleanup only

	guard, err := fdlock.New(holder).Write()
	require.NoError(t, err)
	defer guard.Unlock() //nolint:errcheck // Cleanup only

	waiter, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer waiter.Close() //nolint:errcheck // Cleanup only

	_, err = acquire(waiter, false, &config.Config{NonBlocking: true})
	assert.ErrorIs(t, err, fdlock.ErrWouldBlock)
}
