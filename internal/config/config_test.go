package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaults and format validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultSensorPin, cfg.SensorPin)
	require.Equal(t, DefaultIndicatorPins, cfg.IndicatorPins)
	require.Equal(t, DefaultPoll, cfg.Poll)
	require.Equal(t, DefaultChip, cfg.Chip)
	require.Equal(t, DefaultDeviceName, cfg.DeviceName)

	require.ErrorIs(t, Validate(&Config{SensorPin: -1}), errInvalidPin)
	require.ErrorIs(t, Validate(&Config{IndicatorPins: []int{12, -4}}), errInvalidPin)
	require.ErrorIs(t, Validate(&Config{Poll: -time.Second}), errInvalidPoll)
	require.ErrorIs(t, Validate(&Config{Heartbeat: -time.Second}), errInvalidHeartbeat)
	require.Error(t, Validate(&Config{WebhookURL: "not a url"}))
	require.NoError(t, Validate(&Config{WebhookURL: "https://qyapi.weixin.qq.com/cgi-bin/webhook/send?key=abc"}))
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.Equal(t, DefaultHeartbeat, cfg.Heartbeat)
	require.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	require.Empty(t, cfg.Broker)
	require.Empty(t, cfg.WebhookURL)
	require.False(t, cfg.MDNS)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leak-sensor.yaml")
	contents := `
device_name: kitchen
sensor_pin: 17
indicator_pins: [5]
poll: 20ms
heartbeat: 0s
broker: tcp://192.168.1.200:1883
http_addr: ""
mdns: true
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "kitchen", cfg.DeviceName)
	require.Equal(t, 17, cfg.SensorPin)
	require.Equal(t, []int{5}, cfg.IndicatorPins)
	require.Equal(t, 20*time.Millisecond, cfg.Poll)
	require.Zero(t, cfg.Heartbeat)
	require.Equal(t, "tcp://192.168.1.200:1883", cfg.Broker)
	require.Empty(t, cfg.HTTPAddr)
	require.True(t, cfg.MDNS)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, DefaultClientID, cfg.ClientID)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("poll: [nope"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadDotenvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leak-sensor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("webhook_url: https://example.com/file\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(EnvWebhookURL+"=https://example.com/dotenv\n"), 0o600))

	// godotenv sets the variable in the process; make sure it is cleared.
	t.Setenv(EnvWebhookURL, "")
	require.NoError(t, os.Unsetenv(EnvWebhookURL))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/dotenv", cfg.WebhookURL)
}

func TestLoadEnvBeatsDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "leak-sensor.yaml")
	require.NoError(t, os.WriteFile(path, []byte("broker: tcp://file:1883\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte(EnvBroker+"=tcp://dotenv:1883\n"), 0o600))

	t.Setenv(EnvBroker, "tcp://process:1883")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://process:1883", cfg.Broker)
}
