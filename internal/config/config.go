// Package config loads lifesync configuration.
//
// Values are resolved in this order:
//  1. Built-in defaults
//  2. YAML file (optional)
//  3. LIFESYNC_* environment variables
//  4. Command-line flags (see Flags)
//
// The result is validated once; nothing is re-read at runtime.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Autoplay  AutoplayConfig  `yaml:"autoplay"`
	Server    ServerConfig    `yaml:"server"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GridConfig controls the grid created for each new session.
type GridConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Boundary string `yaml:"boundary"`
}

// AutoplayConfig controls the autoplay cadence.
type AutoplayConfig struct {
	DefaultInterval time.Duration `yaml:"default_interval"`
	MinInterval     time.Duration `yaml:"min_interval"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	MaxSessions  int           `yaml:"max_sessions"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WebSocketConfig contains live-sync connection settings.
type WebSocketConfig struct {
	MaxMessageSize    int64         `yaml:"max_message_size"`
	PingInterval      time.Duration `yaml:"ping_interval"`
	PongTimeout       time.Duration `yaml:"pong_timeout"`
	SendBuffer        int           `yaml:"send_buffer"`
	CommandsPerSecond float64       `yaml:"commands_per_second"`
	CommandBurst      int           `yaml:"command_burst"`
}

// MQTTConfig controls the optional MQTT notification mirror.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
	QueueSize   int    `yaml:"queue_size"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Width:    40,
			Height:   30,
			Boundary: "bounded",
		},
		Autoplay: AutoplayConfig{
			DefaultInterval: 100 * time.Millisecond,
			MinInterval:     50 * time.Millisecond,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxSessions:  64,
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize:    8192,
			PingInterval:      30 * time.Second,
			PongTimeout:       10 * time.Second,
			SendBuffer:        256,
			CommandsPerSecond: 120,
			CommandBurst:      240,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "lifesync",
			TopicPrefix: "lifesync",
			QueueSize:   1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load reads configuration from path and applies environment overrides. An
// empty path skips the file and starts from defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies LIFESYNC_SECTION_KEY variables.
func applyEnvOverrides(cfg *Config) error {
	var problems []string

	intVar := func(name string, dst *int) {
		raw := strings.TrimSpace(os.Getenv(name))
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be an integer, got %q", name, raw))
			return
		}
		*dst = v
	}
	durationVar := func(name string, dst *time.Duration) {
		raw := strings.TrimSpace(os.Getenv(name))
		if raw == "" {
			return
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be a duration, got %q", name, raw))
			return
		}
		*dst = v
	}
	stringVar := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	intVar("LIFESYNC_GRID_WIDTH", &cfg.Grid.Width)
	intVar("LIFESYNC_GRID_HEIGHT", &cfg.Grid.Height)
	stringVar("LIFESYNC_GRID_BOUNDARY", &cfg.Grid.Boundary)
	durationVar("LIFESYNC_AUTOPLAY_DEFAULT_INTERVAL", &cfg.Autoplay.DefaultInterval)
	durationVar("LIFESYNC_AUTOPLAY_MIN_INTERVAL", &cfg.Autoplay.MinInterval)
	stringVar("LIFESYNC_SERVER_HOST", &cfg.Server.Host)
	intVar("LIFESYNC_SERVER_PORT", &cfg.Server.Port)
	intVar("LIFESYNC_SERVER_MAX_SESSIONS", &cfg.Server.MaxSessions)
	stringVar("LIFESYNC_MQTT_BROKER", &cfg.MQTT.Broker)
	stringVar("LIFESYNC_MQTT_USERNAME", &cfg.MQTT.Username)
	stringVar("LIFESYNC_MQTT_PASSWORD", &cfg.MQTT.Password)
	if raw := strings.TrimSpace(os.Getenv("LIFESYNC_MQTT_ENABLED")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			problems = append(problems, fmt.Sprintf("LIFESYNC_MQTT_ENABLED must be a boolean, got %q", raw))
		} else {
			cfg.MQTT.Enabled = v
		}
	}
	stringVar("LIFESYNC_LOG_LEVEL", &cfg.Logging.Level)
	stringVar("LIFESYNC_LOG_FORMAT", &cfg.Logging.Format)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Grid.Width < 0 || c.Grid.Height < 0 {
		errs = append(errs, fmt.Errorf("grid size %dx%d must not be negative", c.Grid.Width, c.Grid.Height))
	}
	switch strings.ToLower(c.Grid.Boundary) {
	case "", "bounded", "toroidal":
	default:
		errs = append(errs, fmt.Errorf("grid.boundary %q must be bounded or toroidal", c.Grid.Boundary))
	}
	if c.Autoplay.MinInterval <= 0 {
		errs = append(errs, errors.New("autoplay.min_interval must be positive"))
	}
	if c.Autoplay.DefaultInterval < c.Autoplay.MinInterval {
		errs = append(errs, fmt.Errorf("autoplay.default_interval %v is below min_interval %v",
			c.Autoplay.DefaultInterval, c.Autoplay.MinInterval))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxSessions < 0 {
		errs = append(errs, errors.New("server.max_sessions must not be negative"))
	}
	if c.WebSocket.SendBuffer <= 0 {
		errs = append(errs, errors.New("websocket.send_buffer must be positive"))
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.PongTimeout <= 0 {
		errs = append(errs, errors.New("websocket ping_interval and pong_timeout must be positive"))
	}
	if c.WebSocket.CommandsPerSecond <= 0 || c.WebSocket.CommandBurst <= 0 {
		errs = append(errs, errors.New("websocket command rate and burst must be positive"))
	}
	if c.MQTT.Enabled {
		if strings.TrimSpace(c.MQTT.Broker) == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos %d must be 0, 1 or 2", c.MQTT.QoS))
		}
		if c.MQTT.QueueSize <= 0 {
			errs = append(errs, errors.New("mqtt.queue_size must be positive"))
		}
	}

	return errors.Join(errs...)
}
