package particles

import (
	"gonum.org/v1/gonum/blas/blas32"
)

const (
	// diffusionGain widens the target while the beat's energy is up.
	diffusionGain = 0.4

	// Kicks fire only above kickThreshold energy, per particle with kickChance
	// per frame, uniform in [-kickSpan*energy, +kickSpan*energy] per axis.
	kickThreshold = 0.1
	kickChance    = 0.01
	kickSpan      = 4.0
)

// Step advances all particles by one frame toward Base*scale*diffusion.
//
// There is no timestep: velocity and position move by a fixed amount per call,
// so motion speed follows the display refresh rate. Each particle is an
// independent damped spring; scale and energyBurst are the only shared inputs.
func (s *Store) Step(scale, energyBurst float32) {
	k := scale * (1 + energyBurst*diffusionGain)
	kick := energyBurst > kickThreshold
	span := kickSpan * energyBurst

	pos, vel, base := s.Pos, s.Vel, s.Base
	for i := 0; i < s.N; i++ {
		ease := s.Ease[i]
		fr := s.Friction[i]
		j := 3 * i

		vx := vel[j] + (base[j]*k-pos[j])*ease
		vy := vel[j+1] + (base[j+1]*k-pos[j+1])*ease
		vz := vel[j+2] + (base[j+2]*k-pos[j+2])*ease

		if kick && s.rng.Float32() < kickChance {
			vx += (s.rng.Float32()*2 - 1) * span
			vy += (s.rng.Float32()*2 - 1) * span
			vz += (s.rng.Float32()*2 - 1) * span
		}

		vx *= fr
		vy *= fr
		vz *= fr

		vel[j], vel[j+1], vel[j+2] = vx, vy, vz
		pos[j] += vx
		pos[j+1] += vy
		pos[j+2] += vz
	}
}

// KineticEnergy returns sum |v|^2 over the store.
func (s *Store) KineticEnergy() float32 {
	return KineticEnergy(s.Vel)
}

// KineticEnergy returns the squared norm of a packed velocity buffer.
func KineticEnergy(vel []float32) float32 {
	if len(vel) == 0 {
		return 0
	}
	v := blas32.Vector{N: len(vel), Inc: 1, Data: vel}
	return blas32.Dot(v, v)
}
