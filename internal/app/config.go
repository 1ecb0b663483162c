package app

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"lifesync/internal/engine"
	"lifesync/pkg/sims/life"
)

// Config holds the viewer's command-line settings.
type Config struct {
	Width    int
	Height   int
	Boundary string
	Scale    int
	Seed     int64
	Interval time.Duration
	TPS      int
	Random   bool
}

// NewConfig returns the viewer defaults.
func NewConfig() Config {
	return Config{
		Width:    80,
		Height:   60,
		Boundary: life.Bounded.String(),
		Scale:    10,
		Interval: 100 * time.Millisecond,
		TPS:      60,
	}
}

// Bind attaches the config fields to fs.
func (c *Config) Bind(fs *pflag.FlagSet) {
	fs.IntVar(&c.Width, "width", c.Width, "grid width in cells")
	fs.IntVar(&c.Height, "height", c.Height, "grid height in cells")
	fs.StringVar(&c.Boundary, "boundary", c.Boundary, "neighbour policy at the grid edge (bounded|toroidal)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixels per cell")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "randomize seed (0 uses the clock)")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "autoplay interval")
	fs.IntVar(&c.TPS, "tps", c.TPS, "UI ticks per second")
	fs.BoolVar(&c.Random, "random", c.Random, "start from a random grid")
}

// EngineOptions validates c and converts it into engine options.
func (c Config) EngineOptions() (engine.Options, error) {
	if c.Width <= 0 || c.Height <= 0 {
		return engine.Options{}, fmt.Errorf("grid size %dx%d must be positive", c.Width, c.Height)
	}
	if c.Scale <= 0 {
		return engine.Options{}, fmt.Errorf("scale %d must be positive", c.Scale)
	}
	boundary, err := life.ParseBoundary(c.Boundary)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.DefaultOptions()
	opts.Width, opts.Height = c.Width, c.Height
	opts.Boundary = boundary
	opts.Seed = c.Seed
	return opts, nil
}
