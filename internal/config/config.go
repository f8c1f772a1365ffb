// Package config loads daemon settings from YAML, with secrets taken from
// the environment or a .env file next to the config.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the daemon settings. Debounce and alert timing are not
// configurable; see logic.StabilityWindow and logic.AlertInterval.
type Config struct {
	// DeviceName identifies this sensor in notifications and mDNS.
	DeviceName string `yaml:"device_name"`
	// SensorPin is the BCM line offset of the comparator output (LOW = leak).
	// Zero selects DefaultSensorPin.
	SensorPin int `yaml:"sensor_pin"`
	// IndicatorPins are the BCM line offsets of the indicator LEDs.
	IndicatorPins []int `yaml:"indicator_pins"`
	// Chip is the GPIO character device name.
	Chip string `yaml:"chip"`
	// Poll is the driver tick period.
	Poll time.Duration `yaml:"poll"`
	// Heartbeat is the interval between heartbeat events (0 disables).
	Heartbeat time.Duration `yaml:"heartbeat"`
	// Broker is the MQTT broker URL (empty disables MQTT).
	Broker string `yaml:"broker"`
	// ClientID is the MQTT client identifier.
	ClientID string `yaml:"client_id"`
	// WebhookURL receives text notifications (empty disables delivery).
	WebhookURL string `yaml:"webhook_url"`
	// HTTPAddr is the status server address (empty disables it).
	HTTPAddr string `yaml:"http_addr"`
	// MDNS enables advertising the status server on the local network.
	MDNS bool `yaml:"mdns"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default settings file.
	DefaultConfigFilename = "leak-sensor.yaml"

	// EnvWebhookURL overrides webhook_url from the file.
	EnvWebhookURL = "LEAK_WEBHOOK_URL"
	// EnvBroker overrides broker from the file.
	EnvBroker = "LEAK_MQTT_BROKER"

	DefaultDeviceName = "leak-sensor"
	DefaultChip       = "gpiochip0"
	DefaultSensorPin  = 3
	DefaultPoll       = 50 * time.Millisecond
	DefaultHeartbeat  = 15 * time.Minute
	DefaultClientID   = "leak-sensor"
	DefaultHTTPAddr   = ":80"
	DefaultLogLevel   = "info"
)

// DefaultIndicatorPins are the two LED lines of the reference board.
//
//nolint:gochecknoglobals // Read-only default.
var DefaultIndicatorPins = []int{12, 13}

var (
	errConfigIsNotSet   = errors.New("configuration is not set")
	errInvalidPin       = errors.New("gpio pin must be >= 0")
	errInvalidPoll      = errors.New("poll interval must be positive")
	errInvalidHeartbeat = errors.New("heartbeat interval must be >= 0")
)

// Default returns a Config populated with defaults.
func Default() *Config {
	cfg := base()
	applyDefaults(cfg)
	return cfg
}

// base returns the settings that a file may explicitly clear.
func base() *Config {
	return &Config{
		Heartbeat: DefaultHeartbeat,
		HTTPAddr:  DefaultHTTPAddr,
	}
}

// Load reads configuration from path, applies .env and environment
// overrides, then validates it. A missing file at the default path is not an
// error; defaults are used instead.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	if err := loadDotenv(path); err != nil {
		return nil, err
	}

	cfg := base()
	contents, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal settings: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No settings file: run on defaults.
	default:
		return nil, fmt.Errorf("read settings: %w", err)
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fills defaults and checks field formats.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if cfg.SensorPin < 0 {
		return fmt.Errorf("sensor_pin %d: %w", cfg.SensorPin, errInvalidPin)
	}
	for _, p := range cfg.IndicatorPins {
		if p < 0 {
			return fmt.Errorf("indicator_pins %d: %w", p, errInvalidPin)
		}
	}
	if cfg.Poll <= 0 {
		return errInvalidPoll
	}
	if cfg.Heartbeat < 0 {
		return errInvalidHeartbeat
	}

	if cfg.Broker != "" {
		if _, err := url.Parse(cfg.Broker); err != nil {
			return fmt.Errorf("invalid broker URL: %w", err)
		}
	}
	if cfg.WebhookURL != "" {
		if _, err := url.ParseRequestURI(cfg.WebhookURL); err != nil {
			return fmt.Errorf("invalid webhook URL: %w", err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DeviceName == "" {
		cfg.DeviceName = DefaultDeviceName
	}
	if cfg.Chip == "" {
		cfg.Chip = DefaultChip
	}
	if cfg.SensorPin == 0 {
		cfg.SensorPin = DefaultSensorPin
	}
	if cfg.IndicatorPins == nil {
		cfg.IndicatorPins = append([]int(nil), DefaultIndicatorPins...)
	}
	if cfg.Poll == 0 {
		cfg.Poll = DefaultPoll
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvWebhookURL); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv(EnvBroker); v != "" {
		cfg.Broker = v
	}
}

// loadDotenv loads .env from the config directory without overriding
// variables already set in the process. A missing .env is ignored.
func loadDotenv(configPath string) error {
	dotenvPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(dotenvPath); err != nil {
		if _, statErr := os.Stat(dotenvPath); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("load %s: %w", dotenvPath, err)
	}
	return nil
}
