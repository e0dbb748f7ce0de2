package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fdlock/fdlock/internal/utils/fsutil"
	"github.com/fdlock/fdlock/pkg/fdlock"
)

func newTestCmd() *cobra.Command {
	var shared bool

	cmd := &cobra.Command{
		Use:   "test PATH",
		Short: "Probe whether an advisory lock on PATH could be acquired",
		Long: `Test attempts a non-blocking acquisition on PATH and releases it
immediately on success. Exits 0 if the lock was free, 2 if it is held.

By default an exclusive probe is used, which conflicts with any holder.
With --shared the probe only conflicts with an exclusive holder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return probe(args[0], shared)
		},
	}

	cmd.Flags().BoolVarP(&shared, "shared", "s", false, "Probe with a shared lock")

	return cmd
}

func probe(path string, shared bool) error {
	f, err := fsutil.OpenLockFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var guard lockGuard
	if shared {
		guard, err = fdlock.TryLockRead(f)
	} else {
		guard, err = fdlock.TryLockWrite(f)
	}
	if err != nil {
		if errors.Is(err, fdlock.ErrWouldBlock) {
			return &exitCodeError{code: exitContention, err: fmt.Errorf("%s: locked", path)}
		}
		return fmt.Errorf("probe %s: %w", path, err)
	}

	if err := guard.Unlock(); err != nil {
		return fmt.Errorf("release probe lock on %s: %w", path, err)
	}
	fmt.Printf("%s: unlocked\n", path)
	return nil
}
