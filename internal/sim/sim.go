// Package sim runs one frame of the heartbeat: the oscillator drives the
// integrator, and beat edges are published to the synth.
package sim

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"heartbeat/internal/beat"
	"heartbeat/internal/mathutil"
	"heartbeat/internal/metrics"
	"heartbeat/internal/particles"
	"heartbeat/internal/shape"
	"heartbeat/internal/synth"
)

// Stream salts for mathutil.Derive. Each consumer gets its own stream so a
// change in one (say, grain density) does not perturb the others.
const (
	saltShape uint64 = iota + 1
	saltKicks
	saltSynth
)

type Config struct {
	Particles int
	Seed      uint64
	Scatter   float64 // 0 means shape.DefaultScatter
	Synth     synth.Config
}

type Option func(*Sim)

func WithLogger(l *zap.Logger) Option {
	return func(s *Sim) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sim) { s.metrics = m }
}

// Frame is what one tick hands to the renderer. Positions aliases the store
// and is only valid until the next call to Sim.Frame.
type Frame struct {
	Index     int
	Elapsed   float64
	Beat      beat.State
	Kinetic   float32
	Grains    int // grains scheduled by this frame
	Positions []float32
}

type Sim struct {
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics

	cloud  *shape.Cloud
	store  *particles.Store
	osc    *beat.Oscillator
	engine *synth.Engine
	bus    *EventBus

	frame   int
	audio   bool
	started bool
	grains  int
}

// New samples the cloud and builds every component. sink may be nil, in
// which case the synth runs disabled. An invalid particle count is the only
// error.
func New(cfg Config, sink synth.Sink, opts ...Option) (*Sim, error) {
	s := &Sim{
		cfg: cfg,
		log: zap.NewNop(),
		osc: beat.New(),
		bus: NewEventBus(),
	}
	for _, o := range opts {
		o(s)
	}

	scatter := cfg.Scatter
	if scatter <= 0 {
		scatter = shape.DefaultScatter
	}
	cloud, err := shape.Sampler{Scatter: scatter}.Sample(cfg.Particles, mathutil.NewRand(mathutil.Derive(cfg.Seed, saltShape)))
	if err != nil {
		return nil, fmt.Errorf("sample heart: %w", err)
	}
	s.cloud = cloud
	s.store = particles.NewStore(cloud, mathutil.NewRand(mathutil.Derive(cfg.Seed, saltKicks)))

	synthOpts := []synth.Option{synth.WithLogger(s.log.Named("synth"))}
	if s.metrics != nil {
		synthOpts = append(synthOpts, synth.WithObserver(s.metrics))
	}
	s.engine = synth.New(cfg.Synth, mathutil.NewRand(mathutil.Derive(cfg.Seed, saltSynth)), sink, synthOpts...)

	s.bus.Subscribe(EventBeat, s.onBeat)
	s.bus.Subscribe(EventAudioToggled, func(e Event) {
		s.log.Info("audio toggled", zap.Bool("enabled", e.Audio))
	})

	s.log.Debug("simulation ready",
		zap.Int("particles", cloud.N),
		zap.Uint64("seed", cfg.Seed),
		zap.Bool("audio_available", s.engine.Enabled()),
	)
	return s, nil
}

func (s *Sim) onBeat(e Event) {
	s.metrics.Beat()
	s.log.Debug("beat",
		zap.Int64("cycle", e.Beat.Cycle),
		zap.Int("frame", e.Frame),
		zap.Float64("elapsed", e.Elapsed),
	)
	if !e.Audio {
		return
	}
	s.grains += len(s.engine.Trigger())
}

// Frame advances the simulation to elapsed seconds. audioEnabled gates
// whether this frame's beat edge, if any, schedules a burst; it never stops
// grains already in flight.
func (s *Sim) Frame(elapsed float64, audioEnabled bool) Frame {
	if s.started && audioEnabled != s.audio {
		s.bus.Emit(Event{Type: EventAudioToggled, Frame: s.frame, Elapsed: elapsed, Audio: audioEnabled})
	}
	s.audio = audioEnabled
	s.started = true
	s.grains = 0

	st := s.osc.Sample(elapsed)

	t0 := time.Now()
	s.store.Step(st.Scale, st.EnergyBurst)
	step := time.Since(t0)

	if st.Triggered {
		s.bus.Emit(Event{Type: EventBeat, Frame: s.frame, Elapsed: elapsed, Beat: st, Audio: audioEnabled})
	}

	ke := s.store.KineticEnergy()
	s.metrics.Frame(step, float64(ke))

	f := Frame{
		Index:     s.frame,
		Elapsed:   elapsed,
		Beat:      st,
		Kinetic:   ke,
		Grains:    s.grains,
		Positions: s.store.Pos,
	}
	s.frame++
	return f
}

// Reset restarts the beat latch for a new elapsed-time origin. Particle
// state is left as is.
func (s *Sim) Reset() {
	s.osc.Reset()
}

func (s *Sim) N() int                  { return s.store.N }
func (s *Sim) Store() *particles.Store { return s.store }
func (s *Sim) Cloud() *shape.Cloud     { return s.cloud }
func (s *Sim) Engine() *synth.Engine   { return s.engine }
func (s *Sim) Bus() *EventBus          { return s.bus }
func (s *Sim) Frames() int             { return s.frame }
func (s *Sim) AudioAvailable() bool    { return s.engine.Enabled() }

// Close releases the audio sink.
func (s *Sim) Close() error {
	return s.engine.Close()
}
