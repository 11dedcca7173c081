package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/bucketsim/internal/bucket"
)

// Summary is the per-turn statistics of the live part of the ensemble.
type Summary struct {
	Centroid     float64 // mean phase, rad
	EnergyMean   float64 // eV
	EnergySpread float64 // rms energy deviation, eV
	PhaseSpread  float64 // rms phase, rad
	Live         int
}

func Summarize(ps []bucket.Particle) Summary {
	phases := make([]float64, 0, len(ps))
	energies := make([]float64, 0, len(ps))
	for _, p := range ps {
		if p.Lost {
			continue
		}
		phases = append(phases, p.Phase)
		energies = append(energies, p.Energy)
	}
	if len(phases) == 0 {
		return Summary{}
	}
	var s Summary
	s.Live = len(phases)
	s.Centroid, s.PhaseSpread = stat.PopMeanStdDev(phases, nil)
	s.EnergyMean, s.EnergySpread = stat.PopMeanStdDev(energies, nil)
	return s
}
