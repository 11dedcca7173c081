package metrics

import (
	"math"

	"github.com/san-kum/bucketsim/internal/bucket"
)

// Metric accumulates a scalar over the turns of a run.
type Metric interface {
	Name() string
	Observe(turn int, particles []bucket.Particle, kineticEnergy float64)
	Value() float64
	Reset()
}

func Default() []Metric {
	return []Metric{
		NewKineticEnergy(),
		NewEnergySpread(false),
		NewEnergySpread(true),
		NewPhaseCentroid(),
		NewSurvival(),
		NewCaptured(math.Pi),
	}
}
