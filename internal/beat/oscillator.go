// Package beat maps elapsed time onto the heartbeat pulse: a scale factor for
// the particle target, an energy level, and a once-per-cycle trigger edge.
package beat

import "math"

// Cycle timing in seconds.
const (
	CycleLength = 2.0
	ExpandEnd   = 0.16
	ContractEnd = 0.32
)

// Pulse levels.
const (
	PeakScale   = 1.15
	TroughScale = 0.90
	BurstEnergy = 0.8

	restRise    = 0.10
	restDecay   = 5.0
	rippleDepth = 0.01
	rippleFreq  = 6 * math.Pi
)

// Phase is the section of the beat cycle.
type Phase uint8

const (
	Expand Phase = iota
	Contract
	Rest
)

func (p Phase) String() string {
	switch p {
	case Expand:
		return "expand"
	case Contract:
		return "contract"
	case Rest:
		return "rest"
	}
	return "unknown"
}

// State is one oscillator reading.
type State struct {
	Phase       Phase
	Cycle       int64 // floor(elapsed / CycleLength)
	Scale       float32
	EnergyBurst float32
	Triggered   bool
}

// Evaluate is the stateless part of the oscillator: phase, scale and energy
// at the given elapsed time. Triggered is always false.
func Evaluate(elapsed float64) State {
	cycle := math.Floor(elapsed / CycleLength)
	t := elapsed - cycle*CycleLength
	if t < 0 || t >= CycleLength {
		t = 0
	}

	st := State{Cycle: int64(cycle)}
	switch {
	case t < ExpandEnd:
		p := t / ExpandEnd
		q := 1 - p
		st.Phase = Expand
		st.Scale = float32(1 + (PeakScale-1)*(1-q*q*q))
		st.EnergyBurst = BurstEnergy
	case t < ContractEnd:
		p := (t - ExpandEnd) / (ContractEnd - ExpandEnd)
		st.Phase = Contract
		st.Scale = float32(PeakScale - (PeakScale-TroughScale)*p*p*p)
	default:
		p := (t - ContractEnd) / (CycleLength - ContractEnd)
		st.Phase = Rest
		st.Scale = float32(TroughScale + restRise*(1-math.Exp(-restDecay*p)) + rippleDepth*math.Sin(rippleFreq*p))
	}
	return st
}

// Oscillator latches the trigger edge: Sample reports Triggered on the first
// reading inside a cycle's Expand phase, and never again for that cycle.
// The zero value is not ready; use New.
type Oscillator struct {
	fired int64 // cycle index that already triggered
}

func New() *Oscillator {
	return &Oscillator{fired: math.MinInt64}
}

// Sample evaluates the pulse at elapsed and updates the latch.
func (o *Oscillator) Sample(elapsed float64) State {
	st := Evaluate(elapsed)
	if st.Phase == Expand && st.Cycle != o.fired {
		o.fired = st.Cycle
		st.Triggered = true
	}
	return st
}

// Reset forgets the latch so the next Expand reading triggers again.
func (o *Oscillator) Reset() {
	o.fired = math.MinInt64
}
