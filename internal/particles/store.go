// Package particles holds the particle buffers and the per-frame integrator
// that pulls every particle toward the beat-scaled heart.
package particles

import (
	"math"

	"heartbeat/internal/mathutil"
	"heartbeat/internal/shape"
)

// Store is the struct-of-arrays particle state. N is fixed for the store's
// lifetime. Pos and Vel are packed xyz and owned by Step; every other buffer
// is written once by NewStore and only read afterwards.
type Store struct {
	N int

	Pos []float32
	Vel []float32

	Base     []float32
	Color    []float32
	Size     []float32
	Friction []float32
	Ease     []float32
	Phase    []float32

	rng *mathutil.Rand
}

// NewStore copies the cloud into fresh buffers. Positions start at the cloud's
// scatter and velocities at zero. rng drives the stochastic burst kicks.
func NewStore(c *shape.Cloud, rng *mathutil.Rand) *Store {
	if rng == nil {
		rng = mathutil.NewRand(1)
	}
	s := &Store{
		N:        c.N,
		Pos:      append([]float32(nil), c.Scatter...),
		Vel:      make([]float32, 3*c.N),
		Base:     append([]float32(nil), c.Base...),
		Color:    append([]float32(nil), c.Color...),
		Size:     append([]float32(nil), c.Size...),
		Friction: append([]float32(nil), c.Friction...),
		Ease:     append([]float32(nil), c.Ease...),
		Phase:    append([]float32(nil), c.Phase...),
		rng:      rng,
	}
	return s
}

// Finite reports whether every position and velocity component is finite.
func (s *Store) Finite() bool {
	for i := range s.Pos {
		if !finite32(s.Pos[i]) || !finite32(s.Vel[i]) {
			return false
		}
	}
	return true
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
