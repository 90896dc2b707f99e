package beat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartbeat/internal/mathutil"
)

const tol = 1e-5

func TestStartOfCycle(t *testing.T) {
	st := New().Sample(0)
	assert.Equal(t, Expand, st.Phase)
	assert.InDelta(t, 1.0, st.Scale, tol)
	assert.InDelta(t, BurstEnergy, st.EnergyBurst, tol)
	assert.True(t, st.Triggered)
}

func TestBoundaryContinuity(t *testing.T) {
	st := Evaluate(ExpandEnd)
	assert.Equal(t, Contract, st.Phase)
	assert.InDelta(t, PeakScale, st.Scale, tol)
	assert.Zero(t, st.EnergyBurst)

	justBefore := Evaluate(ExpandEnd - 1e-9)
	assert.Equal(t, Expand, justBefore.Phase)
	assert.InDelta(t, PeakScale, justBefore.Scale, 1e-4)

	st = Evaluate(ContractEnd)
	assert.Equal(t, Rest, st.Phase)
	assert.InDelta(t, TroughScale, st.Scale, tol)
	assert.Zero(t, st.EnergyBurst)

	justBefore = Evaluate(ContractEnd - 1e-9)
	assert.Equal(t, Contract, justBefore.Phase)
	assert.InDelta(t, TroughScale, justBefore.Scale, 1e-4)
}

func TestPeriodicity(t *testing.T) {
	a := New().Sample(0)
	b := New().Sample(CycleLength)
	assert.Equal(t, a.Phase, b.Phase)
	assert.InDelta(t, a.Scale, b.Scale, tol)
	assert.Equal(t, a.EnergyBurst, b.EnergyBurst)
	assert.Equal(t, a.Triggered, b.Triggered)
	assert.Equal(t, int64(1), b.Cycle)

	for _, e := range []float64{0.05, 0.2, 0.7, 1.9} {
		x := Evaluate(e)
		y := Evaluate(e + 3*CycleLength)
		assert.Equal(t, x.Phase, y.Phase, "t=%v", e)
		assert.InDelta(t, x.Scale, y.Scale, 1e-4, "t=%v", e)
	}
}

func TestRestSettlesTowardOne(t *testing.T) {
	end := Evaluate(CycleLength - 1e-6)
	assert.Equal(t, Rest, end.Phase)
	want := TroughScale + restRise*(1-math.Exp(-restDecay))
	assert.InDelta(t, want, end.Scale, 1e-4)
	assert.Greater(t, end.Scale, float32(0.99))
}

func TestScaleBounds(t *testing.T) {
	for e := 0.0; e < 2*CycleLength; e += 0.001 {
		st := Evaluate(e)
		require.GreaterOrEqual(t, st.Scale, float32(TroughScale-rippleDepth), "t=%v", e)
		require.LessOrEqual(t, st.Scale, float32(PeakScale)+tol, "t=%v", e)
		if st.Phase != Expand {
			require.Zero(t, st.EnergyBurst)
		}
	}
}

func TestTriggerOncePerCycleIrregularSteps(t *testing.T) {
	r := mathutil.NewRand(2024)
	for _, maxStep := range []float64{0.005, 0.03, 0.1, 0.15} {
		osc := New()
		const cycles = 7
		elapsed := 0.0
		count := 0
		for elapsed < cycles*CycleLength {
			if osc.Sample(elapsed).Triggered {
				count++
			}
			elapsed += r.RangeF(0.0005, maxStep)
		}
		assert.Equal(t, cycles, count, "max step %v", maxStep)
	}
}

func TestTriggerOnlyInExpand(t *testing.T) {
	osc := New()
	assert.False(t, osc.Sample(0.5).Triggered)
	assert.False(t, osc.Sample(1.5).Triggered)
	assert.True(t, osc.Sample(2.01).Triggered)
	assert.False(t, osc.Sample(2.02).Triggered)
	assert.False(t, osc.Sample(2.2).Triggered)
	assert.True(t, osc.Sample(4.1).Triggered)
}

func TestReset(t *testing.T) {
	osc := New()
	require.True(t, osc.Sample(0.01).Triggered)
	require.False(t, osc.Sample(0.02).Triggered)
	osc.Reset()
	assert.True(t, osc.Sample(0.03).Triggered)
}

func TestNegativeElapsedWraps(t *testing.T) {
	st := Evaluate(-0.5)
	want := Evaluate(1.5)
	assert.Equal(t, want.Phase, st.Phase)
	assert.InDelta(t, want.Scale, st.Scale, 1e-4)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "expand", Expand.String())
	assert.Equal(t, "contract", Contract.String())
	assert.Equal(t, "rest", Rest.String())
}
