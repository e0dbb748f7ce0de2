package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, time.Duration(DefaultLockTimeout), cfg.LockTimeout)
	assert.False(t, cfg.NonBlocking)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FDLOCK_WORKERS", "4")
	t.Setenv("FDLOCK_LOCK_TIMEOUT", "2s")
	t.Setenv("FDLOCK_NONBLOCK", "yes")
	t.Setenv("FDLOCK_LOG_LEVEL", "debug")

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.True(t, cfg.NonBlocking)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvInvalidWorkers(t *testing.T) {
	t.Setenv("FDLOCK_WORKERS", "many")

	cfg := NewConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FDLOCK_WORKERS")
}

func TestLoadFromEnvInvalidTimeout(t *testing.T) {
	t.Setenv("FDLOCK_LOCK_TIMEOUT", "soon")

	cfg := NewConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FDLOCK_LOCK_TIMEOUT")
}

func TestLoadFromEnvInvalidNonblock(t *testing.T) {
	t.Setenv("FDLOCK_NONBLOCK", "maybe")

	cfg := NewConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FDLOCK_NONBLOCK")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.Workers = -1 },
			wantErr: "worker count",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.LockTimeout = -time.Second },
			wantErr: "lock timeout",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "LOUD" },
			wantErr: "log level",
		},
		{
			name:   "empty log level allowed",
			mutate: func(c *Config) { c.LogLevel = "" },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
