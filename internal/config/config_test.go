package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH",
		"APP_ADDR",
		"APP_READ_TIMEOUT",
		"APP_WRITE_TIMEOUT",
		"APP_IDLE_TIMEOUT",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_MAX_BODY_BYTES",
		"STORE_DRIVER",
		"MONGO_URI",
		"MONGO_DB",
		"DB_DSN",
		"STORE_QUERY_TIMEOUT",
		"STORE_CONNECT_TIMEOUT",
		"STORE_AUTO_MIGRATE",
		"CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"TRACING_ENABLED",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_SERVICE_NAME",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
}

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookreview.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout.Std())
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout.Std())
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)

	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.MongoURI)
	assert.Equal(t, "book_db", cfg.Store.Database)
	assert.Equal(t, 5*time.Second, cfg.Store.QueryTimeout.Std())
	assert.True(t, cfg.Store.AutoMigrate)

	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "bookreview", cfg.Tracing.ServiceName)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, `
server:
  addr: ":9000"
  shutdown_timeout: 3s
store:
  driver: postgres
  query_timeout: 750ms
cors:
  allowed_origins: ["https://books.example"]
log:
  format: text
`))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 750*time.Millisecond, cfg.Store.QueryTimeout.Std())
	assert.Equal(t, []string{"https://books.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "text", cfg.Log.Format)
	// Untouched keys keep their defaults.
	assert.Equal(t, "book_db", cfg.Store.Database)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, "server:\n  addr: \":9000\"\n"))
	t.Setenv("APP_ADDR", ":7000")
	t.Setenv("STORE_DRIVER", "POSTGRES")
	t.Setenv("DB_DSN", "postgres://u:p@db:5432/books")
	t.Setenv("STORE_AUTO_MIGRATE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("APP_MAX_BODY_BYTES", "2048")
	t.Setenv("TRACING_ENABLED", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://u:p@db:5432/books", cfg.Store.PostgresDSN)
	assert.False(t, cfg.Store.AutoMigrate)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoad_MalformedEnvIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_QUERY_TIMEOUT", "soon")
	t.Setenv("APP_MAX_BODY_BYTES", "lots")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Store.QueryTimeout.Std())
	assert.Equal(t, int64(1<<20), cfg.Server.MaxBodyBytes)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "unknown driver", yaml: "store:\n  driver: sqlite\n"},
		{name: "empty database", yaml: "store:\n  database: \"\"\n"},
		{name: "zero query timeout", yaml: "store:\n  query_timeout: 0s\n"},
		{name: "negative body limit", yaml: "server:\n  max_body_bytes: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CONFIG_PATH", writeYAML(t, tt.yaml))

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_InvalidYAMLDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", writeYAML(t, "server:\n  read_timeout: fast\n"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_IgnoresConfigPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("store:\n  driver: postgres\n"), 0o644))
	t.Setenv("CONFIG_PATH", filepath.Join(dir, "missing.yaml"))

	cfg, err := LoadFromFile(explicit)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env"), []byte("MONGO_DB=from_file\nLOG_FORMAT=text\n"), 0o644))

	t.Setenv("MONGO_DB", "from_env")
	t.Setenv("LOG_FORMAT", "")
	require.NoError(t, os.Unsetenv("LOG_FORMAT"))

	t.Chdir(tmp)
	LoadEnvFiles()

	assert.Equal(t, "from_env", os.Getenv("MONGO_DB"))
	assert.Equal(t, "text", os.Getenv("LOG_FORMAT"))
}
