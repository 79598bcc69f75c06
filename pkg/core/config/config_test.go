package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"noro_planning/pkg/core/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "planning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, store.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  shutdown_timeout: 3s
  allowed_origins: ["http://localhost:5173"]
storage:
  backend: sqlite
  sqlite_path: /tmp/plan.db
log:
  level: debug
  pretty: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, store.Settings{Backend: store.BackendSQLite, SQLitePath: "/tmp/plan.db"}, cfg.StoreSettings())
	assert.True(t, cfg.Log.Pretty)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: file\n  dir: /var/plan\n")
	t.Setenv("NORO_STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/noro")
	t.Setenv("NORO_LOG_LEVEL", "warn")
	t.Setenv("NORO_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, store.BackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "postgres://localhost/noro", cfg.Storage.DatabaseURL)
	assert.Equal(t, "/var/plan", cfg.Storage.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: postgres\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "database_url")

	path = writeConfig(t, "storage:\n  backend: tape\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "tape")

	path = writeConfig(t, "server: [not, a, map]\n")
	_, err = Load(path)
	assert.Error(t, err)
}
