package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "ENV", "LOG_LEVEL", "PUBLIC_URL", "STATIC_DIR",
		"SESSION_BACKEND", "SESSION_DIR", "SQLITE_PATH", "DATABASE_URL", "REDIS_URL",
		"ALLOWED_ORIGINS", "MDNS_ENABLED", "SEND_BUFFER", "ROOM_MAILBOX", "STORE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "file", cfg.SessionBackend)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.False(t, cfg.MDNSEnabled)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("PUBLIC_URL", "https://board.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MDNS_ENABLED", "true")
	t.Setenv("SEND_BUFFER", "32")
	t.Setenv("STORE_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://board.example.com", cfg.PublicURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "redis", cfg.SessionBackend)
	assert.True(t, cfg.MDNSEnabled)
	assert.Equal(t, 32, cfg.SendBuffer)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
}

func TestYAMLFileUnderEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "board.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "7000"
env: production
session_backend: sqlite
sqlite_path: /var/lib/board/sessions.db
store_timeout: 3s
room_mailbox: 16
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.SessionBackend)
	assert.Equal(t, "/var/lib/board/sessions.db", cfg.SQLitePath)
	assert.Equal(t, 3*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 16, cfg.RoomMailbox)
}

func TestInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_BACKEND", "postgres")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SESSION_BACKEND", "floppy")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("SEND_BUFFER", "lots")
	_, err = Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
