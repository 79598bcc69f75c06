// Package config loads application settings from a YAML file, then applies
// environment overrides and defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"noro_planning/pkg/core/store"
)

// DefaultPath is where the binaries look for the config file.
const DefaultPath = "config/planning.yaml"

// Config is the merged file and environment configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"NORO_ADDR"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"NORO_SHUTDOWN_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"NORO_ALLOWED_ORIGINS" envSeparator:","`
}

// StorageConfig selects and locates the assumption store backend.
type StorageConfig struct {
	Backend     string `yaml:"backend" env:"NORO_STORAGE_BACKEND"` // file, sqlite or postgres
	Dir         string `yaml:"dir" env:"NORO_STORAGE_DIR"`
	SQLitePath  string `yaml:"sqlite_path" env:"NORO_SQLITE_PATH"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `yaml:"level" env:"NORO_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" env:"NORO_LOG_PRETTY"`
}

// Load reads path (a missing file is not an error), overlays environment
// variables, fills defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = store.BackendFile
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case store.BackendFile, store.BackendSQLite:
	case store.BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("storage.database_url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StoreSettings maps the storage section onto store.Settings.
func (c *Config) StoreSettings() store.Settings {
	return store.Settings{
		Backend:     c.Storage.Backend,
		Dir:         c.Storage.Dir,
		SQLitePath:  c.Storage.SQLitePath,
		DatabaseURL: c.Storage.DatabaseURL,
	}
}
