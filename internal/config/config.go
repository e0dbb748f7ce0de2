// Package config holds environment-driven configuration for the fdlock
// command-line tool and the shared worker pool.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by NewConfig.
const (
	DefaultWorkers     = 0 // 0 = size the pool from the CPU count
	DefaultLockTimeout = 0 // 0 = wait indefinitely
	DefaultLogLevel    = "WARN"
)

// Config holds all configuration for the fdlock CLI
type Config struct {
	// Workers is the size of the blocking worker pool used by the
	// context-aware acquisition paths. Zero sizes it from the CPU count.
	Workers int `json:"workers" env:"FDLOCK_WORKERS"`

	// LockTimeout bounds how long a blocking acquisition waits. Zero waits
	// indefinitely. A timeout is reported like contention, not as a fault.
	LockTimeout time.Duration `json:"lock_timeout" env:"FDLOCK_LOCK_TIMEOUT"`

	// NonBlocking makes acquisitions fail immediately on contention.
	NonBlocking bool `json:"non_blocking" env:"FDLOCK_NONBLOCK"`

	// LogLevel controls diagnostic verbosity (TRACE..ERROR).
	LogLevel string `json:"log_level" env:"FDLOCK_LOG_LEVEL"`
}

// NewConfig creates a configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:     DefaultWorkers,
		LockTimeout: DefaultLockTimeout,
		NonBlocking: false,
		LogLevel:    DefaultLogLevel,
	}
}

// LoadFromEnv overrides configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if workers := os.Getenv("FDLOCK_WORKERS"); workers != "" {
		w, err := strconv.Atoi(workers)
		if err != nil {
			return fmt.Errorf("invalid FDLOCK_WORKERS value: %s", workers)
		}
		c.Workers = w
	}

	if timeout := os.Getenv("FDLOCK_LOCK_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid FDLOCK_LOCK_TIMEOUT value: %s", timeout)
		}
		c.LockTimeout = d
	}

	if nonblock := os.Getenv("FDLOCK_NONBLOCK"); nonblock != "" {
		switch strings.ToLower(nonblock) {
		case "true", "1", "yes", "on":
			c.NonBlocking = true
		case "false", "0", "no", "off":
			c.NonBlocking = false
		default:
			return fmt.Errorf("invalid FDLOCK_NONBLOCK value: %s", nonblock)
		}
	}

	if level := os.Getenv("FDLOCK_LOG_LEVEL"); level != "" {
		c.LogLevel = strings.ToUpper(level)
	}

	return nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("worker count cannot be negative: %d", c.Workers)
	}
	if c.LockTimeout < 0 {
		return fmt.Errorf("lock timeout cannot be negative: %s", c.LockTimeout)
	}

	switch c.LogLevel {
	case "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "":
		// Valid levels
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}
