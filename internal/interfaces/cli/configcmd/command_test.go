package configcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/accessgate/internal/infrastructure/config"
)

func TestRender_MasksSecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Password = "db-password-123"
	cfg.Redis.Password = "redis-password-456"
	cfg.Server.Port = 8080

	out, err := Render(cfg)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "db-password-123")
	assert.NotContains(t, string(out), "redis-password-456")
	assert.Contains(t, string(out), "port: 8080")
	assert.Equal(t, "db-password-123", cfg.Database.Password, "input is left untouched")
}

func TestCommand_PrintsLoadedConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9191\n"), 0o600))

	cmd := NewCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--config", path})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, buf.String(), "port: 9191")
	assert.Contains(t, buf.String(), "poll_interval:")
}
