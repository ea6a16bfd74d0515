package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/ufosightings/internal/database"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err, "failed to parse default config")

	assert.Equal(t, BackendFile, cfg.Backend)
	assert.Equal(t, "ufo_sightings.csv", cfg.File.Path)
	assert.Equal(t, ',', cfg.DelimiterRune())
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "info", cfg.LogLevel())
	assert.Equal(t, "cli", cfg.Logging.Format)
	assert.Equal(t, "sightings", cfg.Database.Table)
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
backend: sqlite
database:
  path: /tmp/ufo.db
  table: ufo
  shape_column: ufo_shape
server:
  port: 9000
`)
	cfg, err := parse(data)
	require.NoError(t, err, "failed to parse minimal config")

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, 9000, cfg.Server.Port)
	// Defaults should still be set for unspecified fields
	assert.Equal(t, "date_time", cfg.Database.DateColumn)
	assert.Equal(t, 10*time.Second, cfg.Server.RequestTimeout)

	opts := cfg.DatabaseOptions()
	assert.Equal(t, database.Options{
		Driver:      database.DriverSQLite,
		DSN:         "/tmp/ufo.db",
		Table:       "ufo",
		ShapeColumn: "ufo_shape",
		DateColumn:  "date_time",
	}, opts)
}

func TestParseRejectsUnknownBackend(t *testing.T) {
	_, err := parse([]byte("backend: postgres\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestParseRejectsBadDelimiter(t *testing.T) {
	_, err := parse([]byte("file:\n  delimiter: \";;\"\n"))
	require.Error(t, err)
}

func TestMySQLOptionsUsePasswordEnv(t *testing.T) {
	t.Setenv("UFO_TEST_DB_PASSWORD", "hunter2")
	cfg, err := parse([]byte(`
backend: mysql
database:
  name: ufo
  user: reader
  password_env: UFO_TEST_DB_PASSWORD
  host: db.internal
  port: 3307
`))
	require.NoError(t, err)

	opts := cfg.DatabaseOptions()
	assert.Equal(t, database.DriverMySQL, opts.Driver)
	assert.Contains(t, opts.DSN, "reader:hunter2@tcp(db.internal:3307)/ufo")
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644), "failed to write temp config")

	cfg, err := Load(path)
	require.NoError(t, err, "failed to load config")
	assert.Equal(t, BackendFile, cfg.Backend)
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	_, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestGetDatabasePath(t *testing.T) {
	cfg := &Config{}
	assert.NotEmpty(t, cfg.GetDatabasePath(), "expected non-empty default database path")

	cfg.Database.Path = "/custom/path.db"
	assert.Equal(t, "/custom/path.db", cfg.GetDatabasePath())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("UFO_TEST_ENV_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("UFO_TEST_ENV_SECRET") })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("UFO_TEST_ENV_SECRET"))
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	t.Setenv("UFO_TEST_ENV_KEEP", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("UFO_TEST_ENV_KEEP=from-file\n"), 0o600))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-env", os.Getenv("UFO_TEST_ENV_KEEP"))
}

func TestLoadEnvFileMissing(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")))
}
