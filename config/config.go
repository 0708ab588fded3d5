// Package config loads the visualizer configuration.
//
// Values start from the embedded defaults.yaml; a user file only overrides
// the keys it names. Derived holds the values computed from the rest.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/life/grid"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Rate limits for fps and paint_fps.
const (
	MinFPS = 1
	MaxFPS = 60
)

// ErrInvalid is returned by Validate for values that cannot be clamped.
var ErrInvalid = errors.New("config: invalid value")

// RGBA is a colour as four bytes.
type RGBA [4]uint8

// Color converts c to a color.RGBA.
func (c RGBA) Color() color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// Config holds all visualizer configuration parameters.
type Config struct {
	Rows              uint32  `yaml:"rows"`
	Cols              uint32  `yaml:"cols"`
	GapRatio          float32 `yaml:"gap_ratio"`
	Wrap              bool    `yaml:"wrap"`
	FPS               int     `yaml:"fps"`
	PaintFPS          int     `yaml:"paint_fps"`
	InitRandThreshold float64 `yaml:"init_rand_threshold"`
	WindowSize        [2]int  `yaml:"window_size"`
	BackgroundColor   RGBA    `yaml:"background_color"`
	AliveColor        RGBA    `yaml:"alive_color"`
	CursorColor       RGBA    `yaml:"cursor_color"`
	Backend           string  `yaml:"backend"`

	// Derived values computed after loading
	Derived Derived `yaml:"-"`
}

// Derived holds values computed from the loaded fields.
type Derived struct {
	Grid          grid.Grid
	Layout        grid.Layout
	DispatchDims  [2]uint32
	FrameInterval time.Duration
	PaintInterval time.Duration
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes data over the defaults, validates and derives.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing embedded defaults: %w", err)
	}
	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parsing: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Derive()
	return cfg, nil
}

// Validate clamps rates and the threshold into range and rejects an empty
// grid.
func (c *Config) Validate() error {
	if c.Rows == 0 || c.Cols == 0 {
		return fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalid, c.Rows, c.Cols)
	}
	if err := (grid.Grid{Rows: c.Rows, Cols: c.Cols}).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	c.FPS = ClampFPS(c.FPS)
	c.PaintFPS = ClampFPS(c.PaintFPS)
	c.InitRandThreshold = min(max(c.InitRandThreshold, 0), 1)
	c.GapRatio = max(c.GapRatio, 0)
	if c.WindowSize[0] < 0 || c.WindowSize[1] < 0 {
		c.WindowSize = [2]int{}
	}
	return nil
}

// Derive fills Derived from the current fields.
func (c *Config) Derive() {
	g := grid.Grid{Rows: c.Rows, Cols: c.Cols}
	c.Derived = Derived{
		Grid:          g,
		Layout:        grid.NewLayout(g, c.GapRatio),
		DispatchDims:  g.DispatchDims(),
		FrameInterval: Interval(c.FPS),
		PaintInterval: Interval(c.PaintFPS),
	}
}

// ClampFPS limits n to [MinFPS, MaxFPS].
func ClampFPS(n int) int {
	return min(max(n, MinFPS), MaxFPS)
}

// Interval returns the period of a rate of fps per second.
func Interval(fps int) time.Duration {
	return time.Second / time.Duration(ClampFPS(fps))
}

// NeedsReconfigure reports whether moving from c to next changes any
// value that sizes or binds GPU resources.
func (c *Config) NeedsReconfigure(next *Config) bool {
	return c.Rows != next.Rows ||
		c.Cols != next.Cols ||
		c.GapRatio != next.GapRatio ||
		c.Wrap != next.Wrap
}

// WriteYAML writes c to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // config file is not secret
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
