package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "ollama")

	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "ollama", cfg.Providers().Provider)
	assert.Equal(t, 2.0, cfg.RateLimit)
}

func TestLoadServerMissingKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "")

	_, err := LoadServer()
	assert.ErrorContains(t, err, "OPENROUTER_API_KEY")
}

func TestLoadServerUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gopher")

	_, err := LoadServer()
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestLoadBotSkipsProviderWithCompletionURL(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/tutorme")
	t.Setenv("COMPLETION_URL", "http://localhost:3000")
	t.Setenv("LLM_PROVIDER", "gopher")

	cfg, err := LoadBot()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxChats, cfg.MaxChats)
}

func TestLoadBotRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/tutorme")
	os.Unsetenv("BOT_TOKEN")

	_, err := LoadBot()
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), tt.in)
	}
}

func TestLoadCLIMissingFile(t *testing.T) {
	t.Setenv("TUTORME_DATA_DIR", t.TempDir())

	cfg, err := LoadCLI(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, "http://localhost:3000", cfg.ServerURL)
	assert.Equal(t, int64(1), cfg.UserID)
}

func TestLoadCLIFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
server_url = "http://tutor.example:8080"
store = "sqlite"
data_dir = "/var/lib/tutorme"
max_chats = 3
`), 0o600))
	t.Setenv("TUTORME_SERVER_URL", "http://override:9000")

	cfg, err := LoadCLI(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:9000", cfg.ServerURL)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "/var/lib/tutorme", cfg.DataDir)
	assert.Equal(t, 3, cfg.MaxChats)
}

func TestLoadCLIRejectsUnknownStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`store = "redis"`), 0o600))

	_, err := LoadCLI(path)
	assert.ErrorContains(t, err, "unsupported store")
}

func TestLoadCLIInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`store = `), 0o600))

	_, err := LoadCLI(path)
	assert.ErrorContains(t, err, "read config")
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	assert.Contains(t, stderr.String(), "shown")
	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, file.String(), `"msg":"shown"`)
}
