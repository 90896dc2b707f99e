package particles

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heartbeat/internal/mathutil"
	"heartbeat/internal/shape"
)

func newTestStore(t *testing.T, n int, seed uint64) *Store {
	t.Helper()
	c, err := shape.Sample(n, mathutil.NewRand(seed))
	require.NoError(t, err)
	return NewStore(c, mathutil.NewRand(seed+1))
}

func TestNewStoreInitialState(t *testing.T) {
	c, err := shape.Sample(64, mathutil.NewRand(2))
	require.NoError(t, err)
	s := NewStore(c, nil)

	assert.Equal(t, 64, s.N)
	assert.Equal(t, c.Scatter, s.Pos)
	assert.Equal(t, c.Base, s.Base)
	for _, v := range s.Vel {
		require.Zero(t, v)
	}

	// The store owns its buffers.
	s.Pos[0] = 12345
	assert.NotEqual(t, float32(12345), c.Scatter[0])
}

func TestStepConvergesToScaledBase(t *testing.T) {
	s := newTestStore(t, 300, 10)
	const scale = float32(1.1)
	for f := 0; f < 3000; f++ {
		s.Step(scale, 0)
	}
	for i := 0; i < 3*s.N; i++ {
		require.InDelta(t, s.Base[i]*scale, s.Pos[i], 1e-3, "component %d", i)
		require.InDelta(t, 0, s.Vel[i], 1e-4, "component %d", i)
	}
	assert.Less(t, s.KineticEnergy(), float32(1e-6))
}

func TestStepZeroEaseNeverMoves(t *testing.T) {
	c, err := shape.Sample(50, mathutil.NewRand(3))
	require.NoError(t, err)
	for i := range c.Ease {
		c.Ease[i] = 0
	}
	s := NewStore(c, mathutil.NewRand(4))
	start := append([]float32(nil), s.Pos...)

	for f := 0; f < 500; f++ {
		scale := float32(0.9 + 0.25*math.Sin(float64(f)*0.1))
		s.Step(scale, 0)
	}
	assert.Equal(t, start, s.Pos)
}

func TestStepLeavesStaticBuffersUntouched(t *testing.T) {
	s := newTestStore(t, 200, 30)
	base := append([]float32(nil), s.Base...)
	color := append([]float32(nil), s.Color...)
	size := append([]float32(nil), s.Size...)
	friction := append([]float32(nil), s.Friction...)
	ease := append([]float32(nil), s.Ease...)
	phase := append([]float32(nil), s.Phase...)

	for f := 0; f < 400; f++ {
		burst := float32(0)
		if f%120 < 10 {
			burst = 0.8
		}
		s.Step(1.0, burst)
		require.Len(t, s.Pos, 3*200)
		require.Len(t, s.Vel, 3*200)
	}

	assert.Equal(t, 200, s.N)
	assert.Equal(t, base, s.Base)
	assert.Equal(t, color, s.Color)
	assert.Equal(t, size, s.Size)
	assert.Equal(t, friction, s.Friction)
	assert.Equal(t, ease, s.Ease)
	assert.Equal(t, phase, s.Phase)
}

func TestStepKicksOnlyAboveThreshold(t *testing.T) {
	c, err := shape.Sample(2000, mathutil.NewRand(6))
	require.NoError(t, err)
	for i := range c.Ease {
		c.Ease[i] = 0
	}

	quiet := NewStore(c, mathutil.NewRand(7))
	quiet.Step(1, kickThreshold)
	assert.Zero(t, quiet.KineticEnergy(), "no kicks at or below the threshold")

	loud := NewStore(c, mathutil.NewRand(7))
	for f := 0; f < 20; f++ {
		loud.Step(1, 0.8)
	}
	assert.Greater(t, loud.KineticEnergy(), float32(0))

	// Bound per axis: a single kick before damping is at most kickSpan*energy.
	one := NewStore(c, mathutil.NewRand(8))
	one.Step(1, 0.8)
	for i := range one.Vel {
		require.LessOrEqual(t, math.Abs(float64(one.Vel[i])), kickSpan*0.8)
	}
}

func TestStepDeterministic(t *testing.T) {
	a := newTestStore(t, 100, 40)
	b := newTestStore(t, 100, 40)
	for f := 0; f < 60; f++ {
		a.Step(1.15, 0.8)
		b.Step(1.15, 0.8)
	}
	assert.Equal(t, a.Pos, b.Pos)
	assert.Equal(t, a.Vel, b.Vel)
}

func TestKineticEnergy(t *testing.T) {
	assert.Zero(t, KineticEnergy(nil))
	assert.InDelta(t, 14, KineticEnergy([]float32{1, 2, 3}), 1e-6)
}

func TestFinite(t *testing.T) {
	s := newTestStore(t, 10, 50)
	assert.True(t, s.Finite())
	s.Vel[4] = float32(math.Inf(1))
	assert.False(t, s.Finite())
	s.Vel[4] = 0
	s.Pos[7] = float32(math.NaN())
	assert.False(t, s.Finite())
}

func BenchmarkStep(b *testing.B) {
	c, err := shape.Sample(20000, mathutil.NewRand(1))
	if err != nil {
		b.Fatal(err)
	}
	s := NewStore(c, mathutil.NewRand(2))
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		s.Step(1.1, 0.8)
	}
}
