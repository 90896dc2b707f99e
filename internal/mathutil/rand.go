// Package mathutil holds the small numeric helpers shared by the simulation:
// a deterministic RNG that every component takes by injection, and clamps.
package mathutil

import (
	"math"
	"time"
)

// splitmix64 is a fast, high-quality 64-bit mixer.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Derive returns an independent stream seed for the given salt.
// The same (seed, salt) pair always yields the same stream.
func Derive(seed, salt uint64) uint64 {
	return splitmix64(seed ^ splitmix64(salt))
}

// TimeSeed returns a clock-based seed for runs that want fresh randomness.
func TimeSeed() uint64 {
	return splitmix64(uint64(time.Now().UnixNano()))
}

// Rand is a tiny deterministic RNG (xorshift64*).
// Not safe for concurrent use; give each goroutine its own stream.
type Rand struct {
	s uint64

	spare    float64
	hasSpare bool
}

func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed}
}

func (r *Rand) NextU64() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.NextU64() % uint64(n))
}

// Float64 returns a uniform value in [0,1).
func (r *Rand) Float64() float64 {
	return float64(r.NextU64()>>11) * (1.0 / (1 << 53))
}

// Float32 returns a uniform value in [0,1).
func (r *Rand) Float32() float32 {
	return float32(r.NextU64()>>40) * (1.0 / (1 << 24))
}

func (r *Rand) RangeF(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + (max-min)*r.Float64()
}

// NormFloat64 returns a standard normal sample (Box-Muller, pairs cached).
func (r *Rand) NormFloat64() float64 {
	if r.hasSpare {
		r.hasSpare = false
		return r.spare
	}
	u1 := r.Float64()
	for u1 == 0 {
		u1 = r.Float64()
	}
	u2 := r.Float64()
	mag := math.Sqrt(-2 * math.Log(u1))
	r.spare = mag * math.Sin(2*math.Pi*u2)
	r.hasSpare = true
	return mag * math.Cos(2*math.Pi*u2)
}
