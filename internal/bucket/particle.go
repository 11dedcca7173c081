package bucket

import "math"

// Seeding ranges for a fresh ensemble.
const (
	SeedPhaseSpan  = 0.75 * math.Pi // phase drawn from [-span, span]
	SeedEnergySpan = 2e6            // eV, energy drawn from [-span, span]
)

// Particle is one member of the ensemble, measured relative to the
// synchronous particle.
type Particle struct {
	Phase  float64 // radians
	Energy float64 // eV
	Lost   bool
}

// Source is the random stream used for seeding. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

func uniform(src Source, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}

// SeedParticles draws n particles, phase first then energy for each.
func SeedParticles(src Source, n int) []Particle {
	ps := make([]Particle, n)
	for i := range ps {
		ps[i].Phase = uniform(src, -SeedPhaseSpan, SeedPhaseSpan)
		ps[i].Energy = uniform(src, -SeedEnergySpan, SeedEnergySpan)
	}
	return ps
}
