package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/pendart/internal/dynamo"
	"github.com/san-kum/pendart/internal/integrators"
	"github.com/san-kum/pendart/internal/models"
	"github.com/san-kum/pendart/internal/paint"
)

const (
	DefaultDt       = 1.0 / 120
	DefaultDuration = 30.0
	DefaultTheta1   = math.Pi / 4
	DefaultTheta2   = math.Pi / 6
	DefaultFPS      = 60
)

// Config describes one run: the pendulum, how it is integrated and how the
// tip paints.
type Config struct {
	Preset      string          `yaml:"preset,omitempty"`
	Integrator  string          `yaml:"integrator"`
	Dt          float64         `yaml:"dt"`
	Duration    float64         `yaml:"duration"`
	RecordEvery int             `yaml:"record_every"`
	Kick        float64         `yaml:"kick"`
	Seed        uint64          `yaml:"seed"`
	Params      models.Params   `yaml:"params"`
	InitState   InitStateConfig `yaml:"init_state"`
	Paint       PaintConfig     `yaml:"paint"`
}

type InitStateConfig struct {
	Theta1 float64 `yaml:"theta1"`
	Theta2 float64 `yaml:"theta2"`
	Omega1 float64 `yaml:"omega1"`
	Omega2 float64 `yaml:"omega2"`
}

type PaintConfig struct {
	Palette   string  `yaml:"palette"`
	ColorKey  int     `yaml:"color_key"`
	BrushSize int     `yaml:"brush_size"`
	Particles int     `yaml:"particles"`
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	Scale     float64 `yaml:"scale"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator:  "rk4",
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		RecordEvery: 1,
		Seed:        1,
		Params:      models.DefaultParams(),
		InitState: InitStateConfig{
			Theta1: DefaultTheta1,
			Theta2: DefaultTheta2,
		},
		Paint: PaintConfig{
			Palette:   "default",
			ColorKey:  9,
			BrushSize: paint.DefaultBrushSize,
			Particles: paint.DefaultParticles,
			Width:     paint.DefaultWidth,
			Height:    paint.DefaultHeight,
			Scale:     paint.DefaultScale,
		},
	}
}

// Load reads a YAML config over the defaults. A named preset replaces the
// starting pose and palette after the file is read.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyPreset copies the preset's pose and palette into c.
func (c *Config) ApplyPreset(name string) error {
	p, ok := GetPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	c.Preset = p.Name
	c.InitState = p.State
	if p.Palette != "" {
		c.Paint.Palette = p.Palette
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if err := dynamo.CheckStep(c.Dt); err != nil {
		return err
	}
	if !(c.Duration > 0) || math.IsInf(c.Duration, 1) {
		return fmt.Errorf("duration=%g must be positive: %w", c.Duration, dynamo.ErrParameterBounds)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("record_every=%d must not be negative: %w", c.RecordEvery, dynamo.ErrParameterBounds)
	}
	if _, err := integrators.ByName(c.Integrator); err != nil {
		return err
	}
	if !c.InitialState().IsValid() || math.IsNaN(c.Kick) || math.IsInf(c.Kick, 0) {
		return fmt.Errorf("init_state: %w", dynamo.ErrInvalidState)
	}
	return c.Paint.Validate()
}

func (p PaintConfig) Validate() error {
	if _, ok := paint.PaletteByName(p.Palette); !ok {
		return fmt.Errorf("unknown palette %q", p.Palette)
	}
	if p.ColorKey < 1 || p.ColorKey > paint.PaletteSize {
		return fmt.Errorf("color_key=%d outside 1..%d: %w", p.ColorKey, paint.PaletteSize, dynamo.ErrParameterBounds)
	}
	if p.BrushSize < paint.MinBrushSize || p.BrushSize > paint.MaxBrushSize {
		return fmt.Errorf("brush_size=%d outside %d..%d: %w", p.BrushSize, paint.MinBrushSize, paint.MaxBrushSize, dynamo.ErrParameterBounds)
	}
	if p.Particles < paint.MinParticles || p.Particles > paint.MaxParticles {
		return fmt.Errorf("particles=%d outside %d..%d: %w", p.Particles, paint.MinParticles, paint.MaxParticles, dynamo.ErrParameterBounds)
	}
	if p.Width <= 0 || p.Height <= 0 || !(p.Scale > 0) {
		return fmt.Errorf("canvas %dx%d scale %g: %w", p.Width, p.Height, p.Scale, dynamo.ErrParameterBounds)
	}
	return nil
}

// InitialState returns the starting state vector (θ1, θ2, ω1, ω2).
func (c *Config) InitialState() dynamo.State {
	return dynamo.State{c.InitState.Theta1, c.InitState.Theta2, c.InitState.Omega1, c.InitState.Omega2}
}

// SimConfig converts the run settings for a headless simulator.
func (c *Config) SimConfig() dynamo.Config {
	return dynamo.Config{
		Dt:            c.Dt,
		Duration:      c.Duration,
		RecordEvery:   c.RecordEvery,
		ValidateState: true,
	}
}

// Brush builds the brush described by the paint section.
func (p PaintConfig) Brush() paint.Brush {
	b := paint.DefaultBrush()
	b.Size = p.BrushSize
	b.Particles = p.Particles
	if pal, ok := paint.PaletteByName(p.Palette); ok {
		if col, ok := pal.Key(p.ColorKey); ok {
			b.Color = col
		}
	}
	return b
}

func (p PaintConfig) View() paint.View {
	return paint.View{Width: p.Width, Height: p.Height, Scale: p.Scale}
}
