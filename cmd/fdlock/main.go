// fdlock is a command-line front end for advisory whole-file locking, in
// the spirit of flock(1): run a command under a lock, probe a lock, or show
// who recorded themselves as the holder.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"    //nolint:gochecknoglobals // Build-time commit info
	date    = "unknown" //nolint:gochecknoglobals // Build-time date info

	// Global debug flag
	debugMode bool //nolint:gochecknoglobals // CLI global flag
)

// Exit codes. Contention gets its own code so scripts can branch on it.
const (
	exitOK         = 0
	exitError      = 1
	exitContention = 2
)

// exitCodeError carries a specific process exit code out of a command.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func main() {
	rootCmd := &cobra.Command{
		Use:   "fdlock",
		Short: "Advisory whole-file locking from the command line",
		Long: `fdlock coordinates access to a file between cooperating processes
using OS advisory locks (flock/fcntl on Unix, LockFileEx on Windows).

The lock is advisory: it only affects processes that also use it.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debugMode {
				_ = os.Setenv("FDLOCK_LOG_LEVEL", "DEBUG") // os.Setenv always returns nil here
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newTestCmd())
	rootCmd.AddCommand(newInfoCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fdlock: %v\n", err)
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}
		os.Exit(exitError)
	}
}
