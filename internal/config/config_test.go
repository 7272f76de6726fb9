package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.LogLevel)
	assert.Equal(t, float64(0), cfg.Network.RequestsPerSecond)
}

func TestLoad_ParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[logging]
log_level = "debug"
log_file = "/tmp/huntly.log"
log_max_backups = 7

[network]
requests_per_second = 2.5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "/tmp/huntly.log", cfg.Logging.LogFile)
	assert.Equal(t, 7, cfg.Logging.LogMaxBackups)
	assert.Equal(t, 2.5, cfg.Network.RequestsPerSecond)
}

func TestLoad_MalformedFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestAppSettings_FirstLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.settings.json")

	settings, err := LoadAppSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, settings.Port)
	assert.False(t, settings.AutoStartUp)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"port":8123,"auto_start_up":false}`, string(data))
}

func TestAppSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.settings.json")

	require.NoError(t, SaveAppSettings(path, AppSettings{Port: 9999, AutoStartUp: true}))

	settings, err := LoadAppSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, settings.Port)
	assert.True(t, settings.AutoStartUp)
}

func TestServerJarDisabled(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE"} {
		t.Setenv("HUNTLY_NO_SERVER_JAR", v)
		assert.True(t, ServerJarDisabled(), v)
	}

	t.Setenv("HUNTLY_NO_SERVER_JAR", "yes")
	assert.False(t, ServerJarDisabled())

	t.Setenv("HUNTLY_NO_SERVER_JAR", "")
	assert.False(t, ServerJarDisabled())
}
