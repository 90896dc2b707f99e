package synth

import (
	"math"

	"github.com/gopxl/beep"

	"heartbeat/internal/mathutil"
)

// Grain parameter ranges, half-open. Times are seconds.
const (
	DurationMin = 0.1
	DurationMax = 0.4

	CutoffMin = 4000.0
	CutoffMax = 7000.0

	FundamentalMin = 1500.0
	FundamentalMax = 4500.0

	RatioMin = 1.5
	RatioMax = 2.5

	// DisposeSlack is how long a grain's nodes outlive its envelope.
	DisposeSlack = 0.2

	noiseAttack = 0.020
	noisePeak   = 0.08
	bellAttack  = 0.010
	bellPeak    = 0.05
	envFloor    = 0.001

	// Modulation deviation ramps from fundamental*modStartFactor down to
	// modEnd Hz over modRamp seconds.
	modStartFactor = 0.5
	modEnd         = 1.0
	modRamp        = 0.100
)

// Grain is one scheduled sparkle: a filtered-noise layer and an FM bell
// layer sharing a duration. Start is on the engine clock in seconds.
type Grain struct {
	Start       float64
	Offset      float64 // Start minus the burst time
	Duration    float64
	Cutoff      float64
	Fundamental float64
	Ratio       float64
	Pan         float64
}

// Lifetime is how long the grain's nodes exist, from Start.
func (g Grain) Lifetime() float64 { return g.Duration + DisposeSlack }

// StopAt is the engine time at which the grain's nodes are disposed.
func (g Grain) StopAt() float64 { return g.Start + g.Lifetime() }

// drawGrain draws one grain's parameters. Order: offset, duration, cutoff,
// fundamental, ratio, pan.
func drawGrain(r *mathutil.Rand, burst, spread float64) Grain {
	off := r.Float64() * spread
	return Grain{
		Start:       burst + off,
		Offset:      off,
		Duration:    r.RangeF(DurationMin, DurationMax),
		Cutoff:      r.RangeF(CutoffMin, CutoffMax),
		Fundamental: r.RangeF(FundamentalMin, FundamentalMax),
		Ratio:       r.RangeF(RatioMin, RatioMax),
		Pan:         r.Float64()*2 - 1,
	}
}

// voice is a grain's live node graph plus its window on the sample clock.
type voice struct {
	Grain
	start int64 // first sample
	stop  int64 // disposal sample, exclusive
	out   beep.Streamer

	activeIdx int // position in Engine.active, -1 when not active
}

// newVoice builds both layers for g. noise is the engine's shared buffer.
func newVoice(g Grain, noise []float32, rate int) *voice {
	sr := float64(rate)
	dur := secondsToSamples(g.Duration, rate)

	noiseLayer := newEnvelope(
		newHighpass(&noiseLoop{buf: noise}, g.Cutoff, highpassQ, rate),
		secondsToSamples(noiseAttack, rate), dur, noisePeak, envFloor,
	)

	bell := newPanner(
		newEnvelope(
			newFMBell(g.Fundamental, g.Ratio, g.Fundamental*modStartFactor, modEnd, secondsToSamples(modRamp, rate), rate),
			secondsToSamples(bellAttack, rate), dur, bellPeak, envFloor,
		),
		g.Pan,
	)

	start := int64(math.Round(g.Start * sr))
	return &voice{
		Grain:     g,
		start:     start,
		stop:      start + int64(secondsToSamples(g.Lifetime(), rate)),
		out:       beep.Mix(noiseLayer, bell),
		activeIdx: -1,
	}
}

func secondsToSamples(s float64, rate int) int {
	return int(math.Round(s * float64(rate)))
}
