package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 4040, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, 3600, cfg.Scanner.TimeoutSeconds)
	assert.Equal(t, 14400, cfg.Scanner.FullTimeoutSeconds)
	assert.Equal(t, ";", cfg.Scanner.GenreSeparators)
	assert.Equal(t, float64(85), cfg.Scanner.MaxCPUPercent)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
scanner:
  parallelism: 2
  full_scan: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Scanner.Parallelism)
	assert.True(t, cfg.Scanner.FullScan)
	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644))
	t.Setenv("AIRSONIC_PORT", "9090")
	t.Setenv("AIRSONIC_SCAN_TIMEOUT", "120")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Scanner.TimeoutSeconds)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 4040, cfg.Server.Port)
}

func TestScannerTimeoutTracksFullScanFlag(t *testing.T) {
	cfg := ScannerConfig{TimeoutSeconds: 60, FullTimeoutSeconds: 600}
	assert.Equal(t, time.Minute, cfg.Timeout())

	cfg.FullScan = true
	assert.Equal(t, 10*time.Minute, cfg.Timeout())
}
