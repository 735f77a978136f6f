// Package config loads application settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the application.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig controls the saved-log store backend.
type StorageConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the SQLite file path, or the PostgreSQL connection string.
	Path string `yaml:"path"`
	// MaxSavedLogs caps how many logs the store keeps; oldest-first
	// eviction happens on save once the cap is hit.
	MaxSavedLogs int `yaml:"maxSavedLogs"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file. An empty path falls back to the
// SPANTRACE_CONFIG environment variable; if neither names a file, defaults
// are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SPANTRACE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Storage: StorageConfig{
			Driver:       "sqlite",
			Path:         filepath.Join(home, ".spantrace", "saved_logs.db"),
			MaxSavedLogs: 50,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return errors.New("storage.path must not be empty")
	}
	if c.Storage.MaxSavedLogs < 1 {
		return fmt.Errorf("storage.maxSavedLogs must be positive, got %d", c.Storage.MaxSavedLogs)
	}
	return nil
}
