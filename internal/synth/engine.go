// Package synth is the sparkle synthesizer: on every beat trigger it schedules
// a burst of short grains (filtered noise plus an FM bell) onto its own
// sample clock and mixes them into a master gain stage.
package synth

import (
	"errors"
	"sync/atomic"

	"github.com/gopxl/beep"
	"go.uber.org/zap"

	"heartbeat/internal/mathutil"
)

var ErrNoDevice = errors.New("synth: no audio device")

// Config tunes a burst. Zero fields take the defaults.
type Config struct {
	Density    int     // grains per trigger
	Spread     float64 // start offsets are uniform in [0, Spread) seconds
	MasterGain float64 // linear gain of the output stage
	QueueSize  int     // capacity of the schedule queue
}

func DefaultConfig() Config {
	return Config{
		Density:    40,
		Spread:     0.6,
		MasterGain: 0.4,
		QueueSize:  256,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Density <= 0 {
		c.Density = d.Density
	}
	if c.Spread <= 0 {
		c.Spread = d.Spread
	}
	if c.MasterGain <= 0 {
		c.MasterGain = d.MasterGain
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	return c
}

// Sink is the host audio output. The engine hands it its master stream once;
// the sink pulls from it on the audio thread.
type Sink interface {
	SampleRate() int
	Start(src beep.Streamer) error
	Close() error
}

// Observer receives grain lifecycle counts.
type Observer interface {
	GrainsScheduled(n int)
	GrainsDropped(n int)
	GrainsDisposed(n int)
}

type nopObserver struct{}

func (nopObserver) GrainsScheduled(int) {}
func (nopObserver) GrainsDropped(int)   {}
func (nopObserver) GrainsDisposed(int)  {}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.obs = o
		}
	}
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	Scheduled uint64
	Dropped   uint64
	Disposed  uint64
	Active    int
	Clock     float64 // seconds rendered
}

// Engine owns the noise buffer, the master stage and every grain.
//
// Trigger runs on the frame loop; Stream runs on the sink's audio thread.
// They share only the schedule channel and atomics.
type Engine struct {
	cfg  Config
	rate int
	log  *zap.Logger
	obs  Observer

	rng   *mathutil.Rand // frame loop only
	noise []float32      // read-only after New

	sink     Sink
	disabled bool
	closed   atomic.Bool

	clock atomic.Int64 // samples rendered
	queue chan *voice

	// Audio thread only.
	pending  *voiceHeap
	disposal *voiceHeap
	active   []*voice
	scratch  [][2]float64
	master   beep.Streamer

	scheduled atomic.Uint64
	dropped   atomic.Uint64
	disposed  atomic.Uint64
	activeN   atomic.Int64
}

// New builds an engine on sink. A nil sink, or one that fails to start,
// yields a disabled engine: Trigger becomes a no-op and no error surfaces.
func New(cfg Config, rng *mathutil.Rand, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg.withDefaults(),
		log:      zap.NewNop(),
		obs:      nopObserver{},
		rng:      rng,
		pending:  newPendingHeap(),
		disposal: newDisposalHeap(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.rng == nil {
		e.rng = mathutil.NewRand(mathutil.TimeSeed())
	}

	if sink == nil || sink.SampleRate() <= 0 {
		e.disabled = true
		e.log.Info("audio output unavailable, synth disabled")
		return e
	}
	e.sink = sink
	e.rate = sink.SampleRate()
	e.queue = make(chan *voice, e.cfg.QueueSize)

	// One second of uniform noise, shared by every grain.
	e.noise = make([]float32, e.rate)
	for i := range e.noise {
		e.noise[i] = float32(e.rng.Float64()*2 - 1)
	}

	e.master = newVolume(beep.StreamerFunc(e.mix), e.cfg.MasterGain)
	if err := sink.Start(e.master); err != nil {
		e.disabled = true
		e.log.Info("audio output failed to start, synth disabled", zap.Error(err))
		return e
	}
	e.log.Debug("synth ready",
		zap.Int("sample_rate", e.rate),
		zap.Int("density", e.cfg.Density),
		zap.Float64("master_gain", e.cfg.MasterGain),
	)
	return e
}

// Enabled reports whether triggers schedule anything.
func (e *Engine) Enabled() bool {
	return !e.disabled && !e.closed.Load()
}

// SampleRate is the host rate the engine renders at; 0 when disabled.
func (e *Engine) SampleRate() int { return e.rate }

// Now is the engine clock in seconds.
func (e *Engine) Now() float64 {
	if e.rate == 0 {
		return 0
	}
	return float64(e.clock.Load()) / float64(e.rate)
}

// Trigger schedules one burst starting at the current engine time and
// returns the grains it queued. It never blocks: grains that do not fit in
// the schedule queue are dropped and counted.
func (e *Engine) Trigger() []Grain {
	if !e.Enabled() {
		return nil
	}
	burst := e.Now()
	grains := make([]Grain, 0, e.cfg.Density)
	dropped := 0
	for i := 0; i < e.cfg.Density; i++ {
		g := drawGrain(e.rng, burst, e.cfg.Spread)
		select {
		case e.queue <- newVoice(g, e.noise, e.rate):
			grains = append(grains, g)
		default:
			dropped++
		}
	}
	if n := len(grains); n > 0 {
		e.scheduled.Add(uint64(n))
		e.obs.GrainsScheduled(n)
	}
	if dropped > 0 {
		e.dropped.Add(uint64(dropped))
		e.obs.GrainsDropped(dropped)
		e.log.Warn("schedule queue full, grains dropped", zap.Int("dropped", dropped))
	}
	return grains
}

// Stream renders the master output. It is what the sink pulls from; tests
// and offline rendering may call it directly from a single goroutine.
func (e *Engine) Stream(samples [][2]float64) (int, bool) {
	if e.disabled {
		clear(samples)
		return len(samples), true
	}
	return e.master.Stream(samples)
}

func (e *Engine) Err() error { return nil }

// mix renders one block of the grain bus onto the engine clock.
func (e *Engine) mix(samples [][2]float64) (int, bool) {
	clear(samples)
	n := int64(len(samples))
	start := e.clock.Load()
	end := start + n

	e.drain()
	e.activate(start, end)

	if cap(e.scratch) < len(samples) {
		e.scratch = make([][2]float64, len(samples))
	}
	for _, v := range e.active {
		from := max(v.start, start)
		to := min(v.stop, end)
		if to <= from {
			continue
		}
		buf := e.scratch[:to-from]
		v.out.Stream(buf)
		dst := samples[from-start : to-start]
		for i := range buf {
			dst[i][0] += buf[i][0]
			dst[i][1] += buf[i][1]
		}
	}

	e.clock.Store(end)
	e.dispose(end)
	return len(samples), true
}

// drain moves queued voices into the pending heap.
func (e *Engine) drain() {
	for {
		select {
		case v := <-e.queue:
			e.pending.push(v)
		default:
			return
		}
	}
}

// activate promotes pending voices that start before end. A voice whose
// start already passed is shifted to the block start, keeping its lifetime.
func (e *Engine) activate(start, end int64) {
	for {
		s, ok := e.pending.peek()
		if !ok || s >= end {
			return
		}
		v := e.pending.pop()
		if v.start < start {
			shift := start - v.start
			v.start += shift
			v.stop += shift
		}
		v.activeIdx = len(e.active)
		e.active = append(e.active, v)
		e.disposal.push(v)
		e.activeN.Add(1)
	}
}

// dispose tears down every voice whose stop sample has been reached.
func (e *Engine) dispose(now int64) {
	n := 0
	for {
		s, ok := e.disposal.peek()
		if !ok || s > now {
			break
		}
		v := e.disposal.pop()
		last := len(e.active) - 1
		moved := e.active[last]
		e.active[v.activeIdx] = moved
		moved.activeIdx = v.activeIdx
		e.active[last] = nil
		e.active = e.active[:last]
		v.activeIdx = -1
		v.out = nil
		n++
	}
	if n > 0 {
		e.activeN.Add(int64(-n))
		e.disposed.Add(uint64(n))
		e.obs.GrainsDisposed(n)
	}
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Scheduled: e.scheduled.Load(),
		Dropped:   e.dropped.Load(),
		Disposed:  e.disposed.Load(),
		Active:    int(e.activeN.Load()),
		Clock:     e.Now(),
	}
}

// Close stops new scheduling and releases the sink. In-flight grains are
// not cut short by the engine; the sink decides what happens to its buffer.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	if e.sink == nil || e.disabled {
		return nil
	}
	return e.sink.Close()
}
