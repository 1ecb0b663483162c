package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags holds command-line overrides. Only flags the user actually set are
// applied on top of the loaded configuration.
type Flags struct {
	ConfigPath string
	Host       string
	Port       int
	Width      int
	Height     int
	Boundary   string
	Interval   time.Duration
	LogLevel   string
	MQTT       bool
}

// NewFlags returns Flags seeded from the built-in defaults so help output
// shows meaningful values.
func NewFlags() *Flags {
	d := Default()
	return &Flags{
		Host:     d.Server.Host,
		Port:     d.Server.Port,
		Width:    d.Grid.Width,
		Height:   d.Grid.Height,
		Boundary: d.Grid.Boundary,
		Interval: d.Autoplay.DefaultInterval,
		LogLevel: d.Logging.Level,
	}
}

// Bind attaches the flags to the provided FlagSet.
func (f *Flags) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigPath, "config", "c", f.ConfigPath, "path to YAML configuration file")
	fs.StringVar(&f.Host, "host", f.Host, "listen host")
	fs.IntVarP(&f.Port, "port", "p", f.Port, "listen port")
	fs.IntVar(&f.Width, "width", f.Width, "grid width for new sessions")
	fs.IntVar(&f.Height, "height", f.Height, "grid height for new sessions")
	fs.StringVar(&f.Boundary, "boundary", f.Boundary, "neighbour policy at the grid edge (bounded|toroidal)")
	fs.DurationVar(&f.Interval, "interval", f.Interval, "default autoplay interval")
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "log level (debug|info|warn|error)")
	fs.BoolVar(&f.MQTT, "mqtt", f.MQTT, "mirror notifications to MQTT")
}

// Apply copies every flag that was explicitly set on fs into cfg.
func (f *Flags) Apply(cfg *Config, fs *pflag.FlagSet) {
	if fs.Changed("host") {
		cfg.Server.Host = f.Host
	}
	if fs.Changed("port") {
		cfg.Server.Port = f.Port
	}
	if fs.Changed("width") {
		cfg.Grid.Width = f.Width
	}
	if fs.Changed("height") {
		cfg.Grid.Height = f.Height
	}
	if fs.Changed("boundary") {
		cfg.Grid.Boundary = f.Boundary
	}
	if fs.Changed("interval") {
		cfg.Autoplay.DefaultInterval = f.Interval
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.LogLevel
	}
	if fs.Changed("mqtt") {
		cfg.MQTT.Enabled = f.MQTT
	}
}
