package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzaccagnino/go-sheets/internal/crypto"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.DBPath, cfg.DBPath)
	assert.Equal(t, "it", cfg.Language)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, crypto.DefaultParams, cfg.KDF.Params())
	assert.Equal(t, "127.0.0.1:8484", cfg.Server.Addr)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /tmp/sheets-test.db
language: en
log:
  level: debug
server:
  token: s3cret
`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/sheets-test.db", cfg.DBPath)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "s3cret", cfg.Server.Token)
	assert.Equal(t, 20, cfg.Server.RateLimitBurst)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHEETS_DB_PATH", "/tmp/env.db")
	t.Setenv("SHEETS_API_TOKEN", "from-env")
	t.Setenv("SHEETS_ADDR", ":9999")
	t.Setenv("SHEETS_RATE_LIMIT_RPS", "2.5")
	t.Setenv("SHEETS_RATE_LIMIT_BURST", "4")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, "from-env", cfg.Server.Token)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 2.5, cfg.Server.RateLimitRPS)
	assert.Equal(t, 4, cfg.Server.RateLimitBurst)
}

func TestLoad_BadEnvNumber(t *testing.T) {
	t.Setenv("SHEETS_RATE_LIMIT_BURST", "lots")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SHEETS_DB_PATH", "~/data/sheets.db")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data", "sheets.db"), cfg.DBPath)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")

	cfg := Default()
	cfg.Language = "en"
	cfg.KDF.Time = 1
	require.NoError(t, cfg.Save(path))
	assert.True(t, ConfigExists(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "en", loaded.Language)
	assert.Equal(t, uint32(1), loaded.KDF.Time)
}
