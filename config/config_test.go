package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.HTTPPort)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.False(t, cfg.Postgres.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
http_port = "8080"
data_dir = "/var/lib/traceledger"

[postgres]
enabled = true
host = "db:5432"
user = "trace"
password = "secret"
database = "traceledger"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "/var/lib/traceledger", cfg.DataDir)
	assert.True(t, cfg.Postgres.Enabled)
	assert.Equal(t, "postgresql://trace:secret@db:5432/traceledger", cfg.Postgres.DSN())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
