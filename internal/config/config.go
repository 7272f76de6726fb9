package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the optional behavior configuration read from config.toml.
// The persisted sync settings and state live elsewhere (the sync store
// document); this file only tunes ambient concerns.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel      string `toml:"log_level"`
	LogFile       string `toml:"log_file"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
}

// NetworkConfig controls HTTP client behavior against the Huntly server.
type NetworkConfig struct {
	// RequestsPerSecond caps outgoing API requests. Zero means unlimited.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Logging: LoggingConfig{
			LogLevel:      "warn",
			LogMaxSizeMB:  10,
			LogMaxBackups: 3,
			LogMaxAgeDays: 30,
		},
	}
}

// Load reads config.toml from path. A missing file yields the defaults;
// a malformed file is an error (silently ignoring a user's config invites
// confusing behavior).
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}
