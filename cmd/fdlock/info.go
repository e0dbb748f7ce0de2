package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fdlock/fdlock/internal/utils/fsutil"
)

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info PATH",
		Short: "Show recorded holder information for PATH",
		Long: `Info prints the owner metadata recorded by 'fdlock run' while it held
the lock. The metadata is advisory: it can be stale if a holder crashed,
and locks taken by other tools leave no record. Use 'fdlock test' to
probe the actual lock state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return showInfo(args[0])
		},
	}

	return cmd
}

func showInfo(path string) error {
	info, err := fsutil.ReadOwnerInfo(path)
	if err != nil {
		if errors.Is(err, fsutil.ErrNoOwnerInfo) {
			fmt.Printf("%s: no holder recorded\n", path)
			return nil
		}
		return err
	}

	fmt.Printf("owner:    %s\n", info.OwnerID)
	fmt.Printf("pid:      %d\n", info.PID)
	fmt.Printf("host:     %s\n", info.Hostname)
	fmt.Printf("mode:     %s\n", info.Mode)
	fmt.Printf("acquired: %s\n", info.AcquiredAt.Format(time.RFC3339))
	return nil
}
