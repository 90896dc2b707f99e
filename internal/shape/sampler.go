// Package shape samples the heart-shaped target cloud and the static
// per-particle parameters. It runs once at startup.
package shape

import (
	"errors"
	"fmt"
	"math"

	"heartbeat/internal/mathutil"
)

var (
	ErrInvalidCount = errors.New("shape: particle count must be positive")
	ErrNilRand      = errors.New("shape: nil random source")
)

// Tier is a particle's density class.
type Tier uint8

const (
	TierCore Tier = iota // tight band on the curve
	TierMid              // shell around the curve
	TierHalo             // sparse outer haze
)

func (t Tier) String() string {
	switch t {
	case TierCore:
		return "core"
	case TierMid:
		return "mid"
	case TierHalo:
		return "halo"
	}
	return "unknown"
}

// TierSpread is the offset envelope for one tier.
type TierSpread struct {
	Magnitude float64 // max x/y offset
	ZFactor   float64 // z thickness factor
}

var Spreads = [...]TierSpread{
	TierCore: {Magnitude: 0.4, ZFactor: 0.8},
	TierMid:  {Magnitude: 2.5, ZFactor: 3.0},
	TierHalo: {Magnitude: 6.0, ZFactor: 6.0},
}

// Tier thresholds on a uniform draw r.
const (
	haloThreshold = 0.95
	midThreshold  = 0.70
)

// Static parameter ranges, half-open.
const (
	FrictionMin = 0.85
	FrictionMax = 0.90
	EaseMin     = 0.12
	EaseMax     = 0.27

	// z offsets take an extra random()*zDepthSpread on top of the tier factor.
	zDepthSpread = 4.0

	DefaultScatter = 50.0
)

// Size bands. Core particles are small and bright, outer tiers larger and dimmer.
var (
	CoreSize  = [2]float64{0.6, 1.0}
	OuterSize = [2]float64{1.2, 2.2}
)

// Cloud is the sampler output in struct-of-arrays layout. Vector buffers are
// packed xyz, length 3*N.
type Cloud struct {
	N int

	Base    []float32
	Scatter []float32
	Color   []float32
	Size    []float32

	Friction []float32
	Ease     []float32
	Phase    []float32
	Tier     []Tier
}

// Sampler generates heart clouds. Scatter is the half-extent of the initial
// cube the positions are strewn over.
type Sampler struct {
	Scatter float64
}

// Sample is Sampler{Scatter: DefaultScatter}.Sample.
func Sample(n int, r *mathutil.Rand) (*Cloud, error) {
	return Sampler{Scatter: DefaultScatter}.Sample(n, r)
}

// HeartPoint evaluates the parametric heart at t. The tip points toward -y.
func HeartPoint(t float64) (x, y float64) {
	s := math.Sin(t)
	x = 16 * s * s * s
	y = 13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t)
	return x, y
}

// ClassifyTier maps a uniform draw in [0,1) to a tier.
func ClassifyTier(r float64) Tier {
	switch {
	case r > haloThreshold:
		return TierHalo
	case r > midThreshold:
		return TierMid
	default:
		return TierCore
	}
}

// Sample draws n particles from r. The draw order per particle is fixed so a
// seed reproduces the cloud exactly: t, tier, direction (3 normals), xy
// magnitude, z magnitude, colour (2), size, friction, ease, phase, scatter (3).
func (s Sampler) Sample(n int, r *mathutil.Rand) (*Cloud, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}
	if r == nil {
		return nil, ErrNilRand
	}
	scatter := s.Scatter
	if scatter <= 0 {
		scatter = DefaultScatter
	}

	c := &Cloud{
		N:        n,
		Base:     make([]float32, 3*n),
		Scatter:  make([]float32, 3*n),
		Color:    make([]float32, 3*n),
		Size:     make([]float32, n),
		Friction: make([]float32, n),
		Ease:     make([]float32, n),
		Phase:    make([]float32, n),
		Tier:     make([]Tier, n),
	}

	for i := 0; i < n; i++ {
		hx, hy := HeartPoint(r.Float64() * 2 * math.Pi)

		tier := ClassifyTier(r.Float64())
		spread := Spreads[tier]

		dx, dy, dz := unitVector(r)
		m := r.Float64() * spread.Magnitude
		mz := spread.ZFactor * (r.Float64() * zDepthSpread)

		j := 3 * i
		c.Base[j] = float32(hx + dx*m)
		c.Base[j+1] = float32(hy + dy*m)
		c.Base[j+2] = float32(dz * mz)

		col := tierColor(tier, r)
		c.Color[j] = col.R
		c.Color[j+1] = col.G
		c.Color[j+2] = col.B

		band := OuterSize
		if tier == TierCore {
			band = CoreSize
		}
		c.Size[i] = float32(mathutil.Lerp(band[0], band[1], r.Float64()))

		c.Friction[i] = float32(r.RangeF(FrictionMin, FrictionMax))
		c.Ease[i] = float32(r.RangeF(EaseMin, EaseMax))
		c.Phase[i] = float32(r.Float64() * 2 * math.Pi)
		c.Tier[i] = tier

		c.Scatter[j] = float32((r.Float64()*2 - 1) * scatter)
		c.Scatter[j+1] = float32((r.Float64()*2 - 1) * scatter)
		c.Scatter[j+2] = float32((r.Float64()*2 - 1) * scatter)
	}
	// float32 rounding can round a draw up onto the open upper bound.
	clampRange(c.Friction, FrictionMin, FrictionMax)
	clampRange(c.Ease, EaseMin, EaseMax)
	return c, nil
}

// unitVector draws a uniform direction from three normals. A zero-length draw
// is treated as magnitude 1, leaving the zero offset in place.
func unitVector(r *mathutil.Rand) (x, y, z float64) {
	x, y, z = r.NormFloat64(), r.NormFloat64(), r.NormFloat64()
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 {
		l = 1
	}
	return x / l, y / l, z / l
}

func clampRange(v []float32, lo, hi float64) {
	l, h := float32(lo), float32(hi)
	for i, x := range v {
		if x < l {
			v[i] = l
		}
		if x >= h {
			v[i] = math.Nextafter32(h, 0)
		}
	}
}
