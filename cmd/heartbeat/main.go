//go:build !android

// Command heartbeat renders the pulsing heart cloud with its sparkle audio,
// or runs it headless for telemetry and WAV capture.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"heartbeat/internal/config"
	"heartbeat/internal/logging"
	"heartbeat/internal/metrics"
	"heartbeat/internal/sim"
	"heartbeat/internal/synth"
	"heartbeat/internal/telemetry"
	"heartbeat/internal/view"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config (empty = embedded defaults)")
	headless := flag.Bool("headless", false, "Run without a window")
	frames := flag.Int("frames", 0, "Headless frame count (0 = use config)")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = config, then time-based)")
	telemetryPath := flag.String("telemetry", "", "Headless per-frame CSV output (empty = use config)")
	wavPath := flag.String("wav", "", "Headless WAV output (empty = use config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "heartbeat: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if *seed != 0 {
		cfg.Particles.Seed = *seed
	}
	if *frames > 0 {
		cfg.Headless.Frames = *frames
	}
	if *telemetryPath != "" {
		cfg.Headless.TelemetryPath = *telemetryPath
	}
	if *wavPath != "" {
		cfg.Headless.WAVPath = *wavPath
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Environment: cfg.Log.Environment})
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *headless, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("heartbeat failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, headless bool, log *zap.Logger) error {
	var m *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		m = metrics.New(prometheus.NewRegistry())
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr, log.Named("metrics")); err != nil {
				log.Warn("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	seed := cfg.Seed()
	simCfg := sim.Config{
		Particles: cfg.Particles.Count,
		Seed:      seed,
		Scatter:   cfg.Particles.Scatter,
		Synth: synth.Config{
			Density:    cfg.Audio.Density,
			Spread:     cfg.Audio.Spread,
			MasterGain: cfg.Audio.MasterGain,
			QueueSize:  cfg.Audio.QueueSize,
		},
	}
	log.Info("starting",
		zap.Bool("headless", headless),
		zap.Int("particles", cfg.Particles.Count),
		zap.Uint64("seed", seed),
		zap.Bool("audio", cfg.Audio.Enabled),
	)

	if headless {
		return runHeadless(ctx, cfg, simCfg, m, log)
	}

	// Audio device failures are absorbed: a nil sink gives a silent engine.
	var sink synth.Sink
	if cfg.Audio.Enabled {
		dev, err := synth.OpenDevice(cfg.Audio.SampleRate)
		if err != nil {
			log.Info("audio init failed, continuing without sound", zap.Error(err))
		} else {
			sink = dev
		}
	}

	s, err := sim.New(simCfg, sink, sim.WithLogger(log.Named("sim")), sim.WithMetrics(m))
	if err != nil {
		return err
	}
	defer s.Close()

	return view.Run(ctx, s, view.Options{
		Window: view.WindowOptions{
			Width:  cfg.Window.Width,
			Height: cfg.Window.Height,
			Title:  cfg.Window.Title,
			VSync:  cfg.Window.VSync,
		},
		FOVDegrees: cfg.Window.FOVDegrees,
		Distance:   cfg.Window.Distance,
		Audio:      cfg.Audio.Enabled,
	}, log.Named("view"))
}

func runHeadless(ctx context.Context, cfg *config.Config, simCfg sim.Config, m *metrics.Metrics, log *zap.Logger) error {
	h := sim.Headless{
		Frames:          cfg.Headless.Frames,
		FrameDT:         cfg.Derived.FrameDT,
		Audio:           cfg.Audio.Enabled,
		SamplesPerFrame: cfg.Derived.SamplesPerFrame,
	}

	// Headless audio renders offline in lockstep with the frames, so only
	// bother when the samples go somewhere.
	var sink synth.Sink
	if cfg.Audio.Enabled && cfg.Headless.WAVPath != "" {
		h.Sink = synth.NewOfflineSink(cfg.Audio.SampleRate)
		sink = h.Sink

		f, err := os.Create(cfg.Headless.WAVPath)
		if err != nil {
			return fmt.Errorf("creating wav file: %w", err)
		}
		defer f.Close()
		h.WAV = synth.NewWAVWriter(f, cfg.Audio.SampleRate)
	}

	rec, err := telemetry.Create(cfg.Headless.TelemetryPath)
	if err != nil {
		return err
	}
	defer rec.Close()
	h.Telemetry = rec

	s, err := sim.New(simCfg, sink, sim.WithLogger(log.Named("sim")), sim.WithMetrics(m))
	if err != nil {
		return err
	}
	defer s.Close()

	sum, err := s.RunHeadless(ctx, h)
	if h.WAV != nil {
		if cerr := h.WAV.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}
	if !sum.Finite {
		return errors.New("particle state diverged")
	}
	log.Info("headless outputs written",
		zap.String("telemetry", cfg.Headless.TelemetryPath),
		zap.String("wav", cfg.Headless.WAVPath),
		zap.Int("rows", rec.Rows()),
	)
	return nil
}
