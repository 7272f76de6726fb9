package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// settingsFileName is the legacy desktop settings file. Its JSON shape is a
// compatibility contract with the desktop shell.
const settingsFileName = "app.settings.json"

// defaultServerPort is the embedded server's default listen port.
const defaultServerPort = 8123

// AppSettings is the desktop shell's settings document.
type AppSettings struct {
	Port        int  `json:"port"`
	AutoStartUp bool `json:"auto_start_up"`
}

// DefaultAppSettings returns the shipped defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{Port: defaultServerPort, AutoStartUp: false}
}

// AppSettingsPath returns the settings file location under the config
// directory.
func AppSettingsPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, settingsFileName)
}

// LoadAppSettings reads the settings file, writing the defaults first when
// it does not exist yet.
func LoadAppSettings(path string) (AppSettings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		settings := DefaultAppSettings()
		if err := SaveAppSettings(path, settings); err != nil {
			return settings, err
		}

		return settings, nil
	}

	if err != nil {
		return AppSettings{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var settings AppSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return AppSettings{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return settings, nil
}

// SaveAppSettings writes the settings file, creating its directory if
// needed.
func SaveAppSettings(path string, settings AppSettings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating settings directory: %w", err)
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("config: encoding settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}

	return nil
}
