package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Grid.Width)
	assert.Equal(t, 30, cfg.Grid.Height)
	assert.Equal(t, "bounded", cfg.Grid.Boundary)
	assert.Equal(t, 50*time.Millisecond, cfg.Autoplay.MinInterval)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
grid:
  width: 64
  height: 48
  boundary: toroidal
autoplay:
  default_interval: 250ms
server:
  port: 9090
websocket:
  ping_interval: 5s
logging:
  level: debug
  format: text
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Grid.Width)
	assert.Equal(t, "toroidal", cfg.Grid.Boundary)
	assert.Equal(t, 250*time.Millisecond, cfg.Autoplay.DefaultInterval)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, "text", cfg.Logging.Format)
	// Untouched sections keep their defaults.
	assert.Equal(t, 256, cfg.WebSocket.SendBuffer)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "grid: [width: oops"))
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load(writeConfig(t, `
grid:
  boundary: klein
autoplay:
  min_interval: 0s
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid.boundary")
	assert.Contains(t, err.Error(), "min_interval")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LIFESYNC_GRID_WIDTH", "12")
	t.Setenv("LIFESYNC_SERVER_PORT", "7000")
	t.Setenv("LIFESYNC_AUTOPLAY_DEFAULT_INTERVAL", "1s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Grid.Width)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, time.Second, cfg.Autoplay.DefaultInterval)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("LIFESYNC_GRID_HEIGHT", "tall")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIFESYNC_GRID_HEIGHT")
}

func TestValidate_MQTTRequiresBroker(t *testing.T) {
	cfg := Default()
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = ""
	assert.Error(t, cfg.Validate())
}

func TestFlagsApplyOnlyChanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := NewFlags()
	flags.Bind(fs)
	require.NoError(t, fs.Parse([]string{"--width", "100", "--boundary", "toroidal"}))

	cfg := Default()
	cfg.Server.Port = 9999
	flags.Apply(cfg, fs)

	assert.Equal(t, 100, cfg.Grid.Width)
	assert.Equal(t, "toroidal", cfg.Grid.Boundary)
	assert.Equal(t, 9999, cfg.Server.Port, "unset flag must not override loaded value")
	assert.Equal(t, 30, cfg.Grid.Height)
}
