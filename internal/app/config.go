package app

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"

	"jumpflood/internal/core"
	"jumpflood/internal/jfa"
)

// Config represents the command-line parameters for the application.
type Config struct {
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	Title      string   `toml:"title"`
	TPS        int      `toml:"tps"`
	Mode       jfa.Mode `toml:"mode"`
	Passes     int      `toml:"passes"`
	Seed       int64    `toml:"seed"`
	Workers    int      `toml:"workers"`
	LogLevel   string   `toml:"log_level"`
	Background string   `toml:"background"`

	// Path is the optional TOML file; it is never read from the file itself.
	Path string `toml:"-"`
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Width:      512,
		Height:     512,
		Title:      "jumpflood",
		TPS:        60,
		Mode:       jfa.ModeDistance,
		Seed:       42,
		LogLevel:   "info",
		Background: "#101014",
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Path, "config", c.Path, "optional TOML config file; flags override it")
	fs.IntVar(&c.Width, "width", c.Width, "field width in pixels")
	fs.IntVar(&c.Height, "height", c.Height, "field height in pixels")
	fs.StringVar(&c.Title, "title", c.Title, "window title")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.TextVar(&c.Mode, "mode", c.Mode, "display mode: distance, contour or field")
	fs.IntVar(&c.Passes, "passes", c.Passes, "flood passes, 0 derives them from the size")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for random seed placement")
	fs.IntVar(&c.Workers, "workers", c.Workers, "software backend workers, 0 uses GOMAXPROCS")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&c.Background, "background", c.Background, "background colour as #rrggbb")
}

// Resolve overlays the config file named by -config, then re-applies every
// flag set on the command line so flags win over the file. It must be called
// after fs.Parse.
func (c *Config) Resolve(fs *flag.FlagSet) error {
	if c.Path != "" {
		explicit := map[string]string{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })
		if err := c.LoadFile(c.Path); err != nil {
			return err
		}
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return fmt.Errorf("flag -%s: %w", name, err)
			}
		}
	}
	return c.Validate()
}

// LoadFile overlays the values present in the TOML file at path. Keys the
// file omits keep their current value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("config %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("config: size %dx%d must be positive", c.Width, c.Height)
	case c.Width > core.MaxCoord || c.Height > core.MaxCoord:
		return fmt.Errorf("config: size %dx%d exceeds %d", c.Width, c.Height, core.MaxCoord)
	case c.TPS <= 0:
		return fmt.Errorf("config: tps %d must be positive", c.TPS)
	case c.Passes < 0:
		return fmt.Errorf("config: passes %d must not be negative", c.Passes)
	case c.Workers < 0:
		return fmt.Errorf("config: workers %d must not be negative", c.Workers)
	}
	if _, err := c.Mode.MarshalText(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	return nil
}

// Size returns the configured field size.
func (c *Config) Size() core.Size { return core.Size{W: c.Width, H: c.Height} }

// BackgroundColor parses Background.
func (c *Config) BackgroundColor() (color.RGBA, error) {
	col, err := colorful.Hex(c.Background)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("config: background %q: %w", c.Background, err)
	}
	r, g, b := col.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
