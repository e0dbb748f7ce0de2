package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/fdlock/fdlock/internal/config"
	"github.com/fdlock/fdlock/internal/utils/fsutil"
	"github.com/fdlock/fdlock/pkg/fdlock"
	"github.com/fdlock/fdlock/pkg/logging"
)

// lockGuard is what run needs from whichever guard variant it acquired.
type lockGuard interface {
	Unlock() error
}

func newRunCmd() *cobra.Command {
	var (
		shared   bool
		nonblock bool
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run PATH -- COMMAND [ARGS...]",
		Short: "Run a command while holding an advisory lock on PATH",
		Long: `Run opens (creating if necessary) PATH, acquires an advisory lock on it,
executes COMMAND with the lock held, and releases the lock when the
command exits. The command's exit code is propagated.

Exits with code 2 when --nonblock finds the lock held or --timeout
expires before the lock is acquired.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runLocked(args[0], args[1:], shared, nonblock, timeout)
		},
	}

	cmd.Flags().BoolVarP(&shared, "shared", "s", false, "Acquire a shared (read) lock instead of exclusive")
	cmd.Flags().BoolVarP(&nonblock, "nonblock", "n", false, "Fail instead of waiting when the lock is held")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Give up waiting after this duration (0 = wait forever)")

	return cmd
}

//nolint:funlen // Single linear acquire-exec-release sequence
func runLocked(path string, argv []string, shared, nonblock bool, timeout time.Duration) error {
	cfg := config.NewConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}
	if nonblock {
		cfg.NonBlocking = true
	}
	if timeout > 0 {
		cfg.LockTimeout = timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := fsutil.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := fsutil.OpenLockFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	mode := "exclusive"
	if shared {
		mode = "shared"
	}
	logging.CLI.Debug("acquiring %s lock on %s", mode, path)

	guard, err := acquire(f, shared, cfg)
	if err != nil {
		if errors.Is(err, fdlock.ErrWouldBlock) || errors.Is(err, context.DeadlineExceeded) {
			return &exitCodeError{code: exitContention, err: fmt.Errorf("%s: lock is held elsewhere", path)}
		}
		return fmt.Errorf("acquire lock on %s: %w", path, err)
	}

	info, err := fsutil.NewOwnerInfo(mode)
	if err == nil {
		if werr := fsutil.WriteOwnerInfo(path, info); werr != nil {
			logging.CLI.Warn("write owner info: %v", werr)
		}
	}
	defer func() {
		if rerr := fsutil.RemoveOwnerInfo(path); rerr != nil {
			logging.CLI.Warn("remove owner info: %v", rerr)
		}
		if uerr := guard.Unlock(); uerr != nil {
			logging.CLI.Error("release lock on %s: %v", path, uerr)
		}
	}()

	child := exec.Command(argv[0], argv[1:]...) //nolint:gosec // Executing the user's own command is the point
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &exitCodeError{code: exitErr.ExitCode(), err: fmt.Errorf("command exited with code %d", exitErr.ExitCode())}
		}
		return fmt.Errorf("run command: %w", err)
	}
	return nil
}

// acquire picks the entry point matching the flags: Try for non-blocking,
// Context when a timeout bounds the wait, plain blocking otherwise.
func acquire(f *os.File, shared bool, cfg *config.Config) (lockGuard, error) {
	lock := fdlock.New(f)

	switch {
	case cfg.NonBlocking && shared:
		return lock.TryRead()
	case cfg.NonBlocking:
		return lock.TryWrite()
	case cfg.LockTimeout > 0:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.LockTimeout)
		defer cancel()
		if shared {
			return lock.ReadContext(ctx)
		}
		return lock.WriteContext(ctx)
	case shared:
		return lock.Read()
	default:
		return lock.Write()
	}
}
