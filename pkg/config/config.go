// Package config loads viewer settings from a TOML file.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/lumberjack"

	"github.com/chazu/knotview/pkg/engine"
	"github.com/chazu/knotview/pkg/pick"
	"github.com/chazu/knotview/pkg/scene"
	"github.com/chazu/knotview/pkg/tessellate"
)

// Config is the full settings file.
type Config struct {
	Tessellation TessellationConfig `toml:"tessellation"`
	Picking      PickingConfig      `toml:"picking"`
	Scene        SceneConfig        `toml:"scene"`
	Engine       EngineConfig       `toml:"engine"`
	Log          LogConfig          `toml:"log"`
}

type TessellationConfig struct {
	SurfaceRefineOffset int `toml:"surface_refine_offset"`
	RationalScale       int `toml:"rational_scale"`
	CurveRefinePerOrder int `toml:"curve_refine_per_order"`
}

type PickingConfig struct {
	NoiseCap int `toml:"noise_cap"`
}

type SceneConfig struct {
	InitTimeout Duration `toml:"init_timeout"`
	Workers     int      `toml:"workers"`
}

type EngineConfig struct {
	EvalTimeout Duration `toml:"eval_timeout"`
}

// Duration decodes TOML strings such as "5s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used when no file is given.
func Default() *Config {
	t := tessellate.DefaultOptions()
	return &Config{
		Tessellation: TessellationConfig{
			SurfaceRefineOffset: t.SurfaceRefineOffset,
			RationalScale:       t.RationalScale,
			CurveRefinePerOrder: t.CurveRefinePerOrder,
		},
		Picking: PickingConfig{NoiseCap: pick.DefaultNoiseCap},
		Scene:   SceneConfig{InitTimeout: Duration{5 * time.Second}},
		Engine:  EngineConfig{EvalTimeout: Duration{engine.EvalTimeout}},
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file
// keep their default values. An empty filename returns the defaults.
func Load(filename string) (*Config, error) {
	c := Default()
	if filename == "" {
		return c, nil
	}
	md, err := toml.DecodeFile(filename, c)
	if err != nil {
		return nil, fmt.Errorf("config: could not decode TOML config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Printf("config: ignoring unknown keys in %s: %v", filename, undecoded)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filename, err)
	}
	return c, nil
}

// Parse decodes TOML text over the defaults.
func Parse(text string) (*Config, error) {
	c := Default()
	if _, err := toml.Decode(text, c); err != nil {
		return nil, fmt.Errorf("config: could not decode TOML config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// Validate rejects settings no refinement or wait can work with.
func (c *Config) Validate() error {
	t := c.Tessellation
	switch {
	case t.SurfaceRefineOffset < 0:
		return fmt.Errorf("tessellation.surface_refine_offset %d is negative", t.SurfaceRefineOffset)
	case t.RationalScale < 1:
		return fmt.Errorf("tessellation.rational_scale %d, must be >= 1", t.RationalScale)
	case t.CurveRefinePerOrder < 1:
		return fmt.Errorf("tessellation.curve_refine_per_order %d, must be >= 1", t.CurveRefinePerOrder)
	case c.Picking.NoiseCap < 0:
		return fmt.Errorf("picking.noise_cap %d is negative", c.Picking.NoiseCap)
	case c.Scene.InitTimeout.Duration < 0:
		return fmt.Errorf("scene.init_timeout %s is negative", c.Scene.InitTimeout)
	case c.Scene.Workers < 0:
		return fmt.Errorf("scene.workers %d is negative", c.Scene.Workers)
	case c.Engine.EvalTimeout.Duration <= 0:
		return fmt.Errorf("engine.eval_timeout %s, must be positive", c.Engine.EvalTimeout)
	}
	return nil
}

// TessellateOptions converts the tessellation section.
func (c *Config) TessellateOptions() tessellate.Options {
	return tessellate.Options{
		SurfaceRefineOffset: c.Tessellation.SurfaceRefineOffset,
		RationalScale:       c.Tessellation.RationalScale,
		CurveRefinePerOrder: c.Tessellation.CurveRefinePerOrder,
	}
}

// SceneOptions converts the settings a scene needs.
func (c *Config) SceneOptions() scene.Options {
	o := scene.DefaultOptions()
	o.Tessellation = c.TessellateOptions()
	o.NoiseCap = c.Picking.NoiseCap
	if c.Scene.InitTimeout.Duration > 0 {
		o.InitTimeout = c.Scene.InitTimeout.Duration
	}
	if c.Scene.Workers > 0 {
		o.Workers = c.Scene.Workers
	}
	return o
}

// NewEngine returns a script engine using the engine section.
func (c *Config) NewEngine() *engine.Engine {
	e := engine.NewEngine()
	e.SetTimeout(c.Engine.EvalTimeout.Duration)
	return e
}

// LogConfig selects where log output goes.
type LogConfig struct {
	Logfile string `toml:"logfile"`
	MaxSize int    `toml:"max_log_size"`
	MaxAge  int    `toml:"max_log_age"`
}

// SetLogger sends the standard logger to a rotating log file and returns
// it. Without a log file, output stays on stderr and the result is nil.
func (c *LogConfig) SetLogger() *lumberjack.Logger {
	if c == nil || c.Logfile == "" {
		log.SetOutput(os.Stderr)
		return nil
	}
	l := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize, // megabytes
		MaxAge:   c.MaxAge,  // days
	}
	log.SetOutput(l)
	return l
}
