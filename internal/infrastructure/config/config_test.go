package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
ingestion:
  poll_interval: 10s
provider:
  token_skew: 45s
`), 0o600))

	t.Setenv("ACCESSGATE_REDIS_HOST", "redis.internal")

	cfg, err := Load("", path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Ingestion.PollInterval)
	assert.Equal(t, 45*time.Second, cfg.Provider.TokenSkew)
	assert.Equal(t, "redis.internal", cfg.Redis.Host)
	assert.Equal(t, uint(3), cfg.Provider.TokenRetryAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Provider.TokenRetryBase)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvSetsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  mode: debug\n"), 0o600))

	cfg, err := Load("release", path)
	require.NoError(t, err)
	assert.Equal(t, "release", cfg.Server.Mode)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
