package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dittostore/internal/bytesize"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, ":50051", cfg.Server.ListenAddress)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Store.Direct)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
  format: json
  output: stderr
server:
  listen_address: "127.0.0.1:7000"
  shutdown_timeout: 5s
  max_recv_msg_size: 16Mi
store:
  path: /data/store.bin
  direct: false
  preallocate: 1Gi
metrics:
  enabled: true
telemetry:
  enabled: true
  endpoint: collector:4317
  sample_rate: 0.25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.ListenAddress)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, bytesize.ByteSize(16*bytesize.MiB), cfg.Server.MaxRecvMsgSize)

	assert.Equal(t, "/data/store.bin", cfg.Store.Path)
	assert.False(t, cfg.Store.Direct)
	assert.Equal(t, bytesize.ByteSize(bytesize.GiB), cfg.Store.Preallocate)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port, "port defaults when metrics enabled")

	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "collector:4317", cfg.Telemetry.Endpoint)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRate, 1e-9)
}

func TestLoadPartialConfigFillsDefaults(t *testing.T) {
	path := writeConfigFile(t, `
store:
  path: /data/store.bin
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/store.bin", cfg.Store.Path)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, ":50051", cfg.Server.ListenAddress)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: verbose
store:
  path: /data/store.bin
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadRejectsNegativeShutdownTimeout(t *testing.T) {
	path := writeConfigFile(t, `
server:
  shutdown_timeout: -5s
store:
  path: /data/store.bin
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown_timeout")
}

func TestSaveAndReloadRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Path = "/data/roundtrip.bin"
	cfg.Store.Preallocate = bytesize.ByteSize(512 * bytesize.MiB)
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9100

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Store.Path, loaded.Store.Path)
	assert.Equal(t, cfg.Store.Preallocate, loaded.Store.Preallocate)
	assert.Equal(t, 9100, loaded.Metrics.Port)
}

func TestEnvironmentOverride(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
store:
  path: /data/store.bin
`)

	t.Setenv("DITTOSTORE_LOGGING_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestInitConfigCreatesSampleFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := InitConfig(false)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# DittoStore Configuration File")
	assert.Contains(t, string(content), "logging:")
	assert.Contains(t, string(content), "store:")

	// A second init without --force must refuse to overwrite
	_, err = InitConfig(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = InitConfig(true)
	require.NoError(t, err)
}

func TestGetDefaultConfigValidates(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, Validate(cfg))
}
