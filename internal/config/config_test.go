package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(kv map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := kv[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 6000, cfg.Particles.Count)
	assert.Zero(t, cfg.Particles.Seed)
	assert.Equal(t, 50.0, cfg.Particles.Scatter)
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 40, cfg.Audio.Density)
	assert.Equal(t, 0.6, cfg.Audio.Spread)
	assert.Equal(t, 0.4, cfg.Audio.MasterGain)
	assert.Equal(t, 60, cfg.Headless.FPS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Metrics.Addr)

	assert.InDelta(t, 1.0/60, cfg.Derived.FrameDT, 1e-15)
	assert.Equal(t, 735, cfg.Derived.SamplesPerFrame)
}

func TestLoadEmptyPathIsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartbeat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
particles:
  count: 100
  seed: 7
audio:
  enabled: false
headless:
  fps: 30
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Particles.Count)
	assert.Equal(t, uint64(7), cfg.Particles.Seed)
	assert.False(t, cfg.Audio.Enabled)
	assert.Equal(t, 44100, cfg.Audio.SampleRate, "untouched keys keep defaults")
	assert.Equal(t, 1470, cfg.Derived.SamplesPerFrame)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("particles: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Defaults()
	cfg.ApplyEnv(env(map[string]string{
		EnvSeed:      "1234",
		EnvParticles: "250",
		EnvAudio:     "false",
	}))
	assert.Equal(t, uint64(1234), cfg.Particles.Seed)
	assert.Equal(t, 250, cfg.Particles.Count)
	assert.False(t, cfg.Audio.Enabled)
}

func TestApplyEnvIgnoresGarbage(t *testing.T) {
	cfg := Defaults()
	cfg.ApplyEnv(env(map[string]string{
		EnvSeed:      "-1",
		EnvParticles: "many",
		EnvAudio:     "maybe",
	}))
	assert.Equal(t, Defaults(), cfg)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"zero count":      func(c *Config) { c.Particles.Count = 0 },
		"negative count":  func(c *Config) { c.Particles.Count = -5 },
		"scatter":         func(c *Config) { c.Particles.Scatter = 0 },
		"sample rate":     func(c *Config) { c.Audio.SampleRate = 0 },
		"density":         func(c *Config) { c.Audio.Density = 0 },
		"spread":          func(c *Config) { c.Audio.Spread = -1 },
		"gain high":       func(c *Config) { c.Audio.MasterGain = 1.5 },
		"gain negative":   func(c *Config) { c.Audio.MasterGain = -0.1 },
		"queue too small": func(c *Config) { c.Audio.QueueSize = 10 },
		"fps":             func(c *Config) { c.Headless.FPS = 0 },
		"frames":          func(c *Config) { c.Headless.Frames = -1 },
		"window":          func(c *Config) { c.Window.Width = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Defaults()
			mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}

func TestSeed(t *testing.T) {
	cfg := Defaults()
	cfg.Particles.Seed = 99
	assert.Equal(t, uint64(99), cfg.Seed())

	cfg.Particles.Seed = 0
	assert.NotZero(t, cfg.Seed())
}
