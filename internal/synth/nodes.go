package synth

import (
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// Every node below is a beep.Streamer that never ends on its own; the engine
// bounds a grain's lifetime by its stop sample. Sources are mono and write
// the same value to both channels.

// noiseLoop plays a shared noise buffer on repeat from its own cursor.
type noiseLoop struct {
	buf []float32
	pos int
}

func (n *noiseLoop) Stream(samples [][2]float64) (int, bool) {
	if len(n.buf) == 0 {
		clear(samples)
		return len(samples), true
	}
	for i := range samples {
		v := float64(n.buf[n.pos])
		samples[i][0], samples[i][1] = v, v
		n.pos++
		if n.pos >= len(n.buf) {
			n.pos = 0
		}
	}
	return len(samples), true
}

func (n *noiseLoop) Err() error { return nil }

// highpassQ is the resonance used for the noise filter: 1 dB, i.e. 10^(1/20).
var highpassQ = math.Pow(10, 1.0/20.0)

// highpass is an RBJ biquad high-pass on the left channel, copied to both.
type highpass struct {
	src                beep.Streamer
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func newHighpass(src beep.Streamer, cutoff, q float64, rate int) *highpass {
	nyq := 0.49 * float64(rate)
	if cutoff > nyq {
		cutoff = nyq
	}
	w0 := 2 * math.Pi * cutoff / float64(rate)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return &highpass{
		src: src,
		b0:  (1 + cw) / 2 / a0,
		b1:  -(1 + cw) / a0,
		b2:  (1 + cw) / 2 / a0,
		a1:  -2 * cw / a0,
		a2:  (1 - alpha) / a0,
	}
}

func (h *highpass) Stream(samples [][2]float64) (int, bool) {
	n, ok := h.src.Stream(samples)
	for i := 0; i < n; i++ {
		x := samples[i][0]
		y := h.b0*x + h.b1*h.x1 + h.b2*h.x2 - h.a1*h.y1 - h.a2*h.y2
		h.x2, h.x1 = h.x1, x
		h.y2, h.y1 = h.y1, y
		samples[i][0], samples[i][1] = y, y
	}
	return n, ok
}

func (h *highpass) Err() error { return h.src.Err() }

// envelope is a linear attack from 0 to peak, then an exponential ramp from
// peak to floor ending at decayEnd samples, then a hold at floor.
type envelope struct {
	src      beep.Streamer
	attack   int
	decayEnd int
	peak     float64
	floor    float64

	pos   int
	level float64
	ratio float64 // per-sample multiplier during the decay
}

func newEnvelope(src beep.Streamer, attack, decayEnd int, peak, floor float64) *envelope {
	if attack < 1 {
		attack = 1
	}
	if decayEnd <= attack {
		decayEnd = attack + 1
	}
	return &envelope{
		src:      src,
		attack:   attack,
		decayEnd: decayEnd,
		peak:     peak,
		floor:    floor,
		ratio:    math.Pow(floor/peak, 1/float64(decayEnd-attack)),
	}
}

func (e *envelope) next() float64 {
	switch {
	case e.pos < e.attack:
		e.level = e.peak * float64(e.pos) / float64(e.attack)
	case e.pos == e.attack:
		e.level = e.peak
	case e.pos < e.decayEnd:
		e.level *= e.ratio
	default:
		e.level = e.floor
	}
	e.pos++
	return e.level
}

func (e *envelope) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.src.Stream(samples)
	for i := 0; i < n; i++ {
		g := e.next()
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return n, ok
}

func (e *envelope) Err() error { return e.src.Err() }

// fmBell is a sine carrier whose frequency is modulated by a second sine at
// carrier*ratio. The deviation (Hz) ramps exponentially from devStart to
// devEnd over devSamples, then holds.
type fmBell struct {
	carrier float64
	mod     float64
	rate    float64

	dev      float64
	devEnd   float64
	devRatio float64
	devLeft  int

	cPhase, mPhase float64 // cycles
}

func newFMBell(fundamental, ratio, devStart, devEnd float64, devSamples, rate int) *fmBell {
	if devSamples < 1 {
		devSamples = 1
	}
	return &fmBell{
		carrier:  fundamental,
		mod:      fundamental * ratio,
		rate:     float64(rate),
		dev:      devStart,
		devEnd:   devEnd,
		devRatio: math.Pow(devEnd/devStart, 1/float64(devSamples)),
		devLeft:  devSamples,
	}
}

func (f *fmBell) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := math.Sin(2 * math.Pi * f.cPhase)
		samples[i][0], samples[i][1] = v, v

		m := math.Sin(2 * math.Pi * f.mPhase)
		f.cPhase += (f.carrier + f.dev*m) / f.rate
		f.cPhase -= math.Floor(f.cPhase)
		f.mPhase += f.mod / f.rate
		f.mPhase -= math.Floor(f.mPhase)

		if f.devLeft > 0 {
			f.devLeft--
			f.dev *= f.devRatio
			if f.devLeft == 0 {
				f.dev = f.devEnd
			}
		}
	}
	return len(samples), true
}

func (f *fmBell) Err() error { return nil }

// panner places a mono source with an equal-power law; pan in [-1,1].
type panner struct {
	src         beep.Streamer
	left, right float64
}

func newPanner(src beep.Streamer, pan float64) *panner {
	theta := (pan + 1) * math.Pi / 4
	return &panner{src: src, left: math.Cos(theta), right: math.Sin(theta)}
}

func (p *panner) Stream(samples [][2]float64) (int, bool) {
	n, ok := p.src.Stream(samples)
	for i := 0; i < n; i++ {
		v := samples[i][0]
		samples[i][0] = v * p.left
		samples[i][1] = v * p.right
	}
	return n, ok
}

func (p *panner) Err() error { return p.src.Err() }

// newVolume wraps s in a linear gain. math.Log2(0) is -Inf, so a zero gain
// is expressed as a silent Volume.
func newVolume(s beep.Streamer, vol float64) *effects.Volume {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
