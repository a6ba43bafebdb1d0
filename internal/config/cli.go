package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// CLIConfig configures tutorctl. Values come from defaults, then the TOML
// file, then TUTORME_* environment variables.
type CLIConfig struct {
	ServerURL string `toml:"server_url" env:"TUTORME_SERVER_URL"`

	// Store is "file" (one file per key under DataDir) or "sqlite".
	Store   string `toml:"store" env:"TUTORME_STORE"`
	DataDir string `toml:"data_dir" env:"TUTORME_DATA_DIR"`

	// UserID owns the dashboard entries written by this machine.
	UserID   int64 `toml:"user_id" env:"TUTORME_USER_ID"`
	MaxChats int   `toml:"max_chats" env:"TUTORME_MAX_CHATS"`

	LogFile  string `toml:"log_file" env:"TUTORME_LOG_FILE"`
	LogLevel string `toml:"log_level" env:"TUTORME_LOG_LEVEL"`
}

// ConfigDir is $XDG_CONFIG_HOME/tutorme, or the OS equivalent.
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("find config dir: %w", err)
	}
	return filepath.Join(dir, "tutorme"), nil
}

// DefaultCLIConfig returns the settings used when nothing is configured.
func DefaultCLIConfig() CLIConfig {
	cfg := CLIConfig{
		ServerURL: "http://localhost:3000",
		Store:     StoreFile,
		UserID:    1,
		MaxChats:  DefaultMaxChats,
		LogLevel:  "WARN",
	}
	if dir, err := ConfigDir(); err == nil {
		cfg.DataDir = filepath.Join(dir, "data")
	}
	return cfg
}

// LoadCLI reads path (the default location when empty). A missing file is
// not an error.
func LoadCLI(path string) (*CLIConfig, error) {
	cfg := DefaultCLIConfig()

	if path == "" {
		dir, err := ConfigDir()
		if err == nil {
			path = filepath.Join(dir, "config.toml")
		}
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.Store {
	case StoreFile, StoreSQLite:
	default:
		return nil, fmt.Errorf("unsupported store: %q", cfg.Store)
	}
	if cfg.DataDir == "" {
		return nil, errors.New("data_dir is required")
	}
	if cfg.MaxChats <= 0 {
		cfg.MaxChats = DefaultMaxChats
	}
	return &cfg, nil
}
