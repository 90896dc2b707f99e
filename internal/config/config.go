// Package config loads the runtime configuration: embedded defaults, an
// optional YAML overlay, then environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"heartbeat/internal/mathutil"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Environment variables read by ApplyEnv.
const (
	EnvSeed      = "HEARTBEAT_SEED"
	EnvParticles = "HEARTBEAT_PARTICLES"
	EnvAudio     = "HEARTBEAT_AUDIO"
)

type Config struct {
	Particles ParticlesConfig `yaml:"particles"`
	Audio     AudioConfig     `yaml:"audio"`
	Window    WindowConfig    `yaml:"window"`
	Headless  HeadlessConfig  `yaml:"headless"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	Derived DerivedConfig `yaml:"-"`
}

type ParticlesConfig struct {
	Count   int     `yaml:"count"`
	Seed    uint64  `yaml:"seed"`    // 0 = time-based
	Scatter float64 `yaml:"scatter"` // half-extent of the initial cube
}

type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate int     `yaml:"sample_rate"`
	Density    int     `yaml:"density"`     // grains per beat
	Spread     float64 `yaml:"spread"`      // seconds
	MasterGain float64 `yaml:"master_gain"` // linear, [0,1]
	QueueSize  int     `yaml:"queue_size"`
}

type WindowConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Title      string  `yaml:"title"`
	VSync      bool    `yaml:"vsync"`
	FOVDegrees float64 `yaml:"fov_degrees"`
	Distance   float64 `yaml:"distance"` // camera distance from the origin
}

type HeadlessConfig struct {
	Frames        int    `yaml:"frames"`
	FPS           int    `yaml:"fps"`
	TelemetryPath string `yaml:"telemetry_path"`
	WAVPath       string `yaml:"wav_path"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// DerivedConfig holds values computed after loading.
type DerivedConfig struct {
	FrameDT         float64 // headless step, 1/fps
	SamplesPerFrame int     // audio block rendered per headless frame
}

// Defaults returns the embedded configuration.
func Defaults() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	cfg.computeDerived()
	return cfg
}

// Load overlays the file at path (if any) on the defaults. Environment
// overrides are applied separately by ApplyEnv.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

// ApplyEnv applies the HEARTBEAT_* overrides from lookup (os.LookupEnv in
// production). Values that do not parse are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if s, ok := lookup(EnvSeed); ok && s != "" {
		if v, err := strconv.ParseUint(s, 10, 64); err == nil {
			c.Particles.Seed = v
		}
	}
	if s, ok := lookup(EnvParticles); ok && s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			c.Particles.Count = v
		}
	}
	if s, ok := lookup(EnvAudio); ok && s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			c.Audio.Enabled = v
		}
	}
	c.computeDerived()
}

// Validate reports the first configuration error, wrapping ErrInvalid.
func (c *Config) Validate() error {
	switch {
	case c.Particles.Count <= 0:
		return fmt.Errorf("%w: particles.count must be positive, got %d", ErrInvalid, c.Particles.Count)
	case c.Particles.Scatter <= 0:
		return fmt.Errorf("%w: particles.scatter must be positive, got %g", ErrInvalid, c.Particles.Scatter)
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("%w: audio.sample_rate must be positive, got %d", ErrInvalid, c.Audio.SampleRate)
	case c.Audio.Density <= 0:
		return fmt.Errorf("%w: audio.density must be positive, got %d", ErrInvalid, c.Audio.Density)
	case c.Audio.Spread <= 0:
		return fmt.Errorf("%w: audio.spread must be positive, got %g", ErrInvalid, c.Audio.Spread)
	case c.Audio.MasterGain < 0 || c.Audio.MasterGain > 1:
		return fmt.Errorf("%w: audio.master_gain must be in [0,1], got %g", ErrInvalid, c.Audio.MasterGain)
	case c.Audio.QueueSize < c.Audio.Density:
		return fmt.Errorf("%w: audio.queue_size %d smaller than one burst (%d)", ErrInvalid, c.Audio.QueueSize, c.Audio.Density)
	case c.Headless.FPS <= 0:
		return fmt.Errorf("%w: headless.fps must be positive, got %d", ErrInvalid, c.Headless.FPS)
	case c.Headless.Frames < 0:
		return fmt.Errorf("%w: headless.frames must not be negative, got %d", ErrInvalid, c.Headless.Frames)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	return nil
}

// Seed resolves the particle seed: a zero seed is replaced by a time-based one.
func (c *Config) Seed() uint64 {
	if c.Particles.Seed != 0 {
		return c.Particles.Seed
	}
	return mathutil.TimeSeed()
}

func (c *Config) computeDerived() {
	fps := mathutil.Clamp(c.Headless.FPS, 1, 1000)
	c.Derived.FrameDT = 1 / float64(fps)
	c.Derived.SamplesPerFrame = c.Audio.SampleRate / fps
}
