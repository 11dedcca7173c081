package metrics

import "github.com/san-kum/bucketsim/internal/bucket"

// KineticEnergy reports the synchronous kinetic energy in MeV at the
// last observed turn.
type KineticEnergy struct {
	last float64
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (k *KineticEnergy) Name() string { return "kinetic_energy_mev" }

func (k *KineticEnergy) Observe(turn int, ps []bucket.Particle, ke float64) {
	k.last = ke * 1e-6
}

func (k *KineticEnergy) Value() float64 { return k.last }
func (k *KineticEnergy) Reset()         { k.last = 0 }

// EnergySpread tracks the rms energy deviation in eV. Peak selects the
// largest value seen instead of the last one.
type EnergySpread struct {
	Peak  bool
	value float64
}

func NewEnergySpread(peak bool) *EnergySpread { return &EnergySpread{Peak: peak} }

func (e *EnergySpread) Name() string {
	if e.Peak {
		return "peak_energy_spread_ev"
	}
	return "energy_spread_ev"
}

func (e *EnergySpread) Observe(turn int, ps []bucket.Particle, ke float64) {
	s := Summarize(ps).EnergySpread
	if !e.Peak || s > e.value {
		e.value = s
	}
}

func (e *EnergySpread) Value() float64 { return e.value }
func (e *EnergySpread) Reset()         { e.value = 0 }

// PhaseCentroid is the mean phase of the live particles at the last turn.
type PhaseCentroid struct {
	value float64
}

func NewPhaseCentroid() *PhaseCentroid { return &PhaseCentroid{} }

func (p *PhaseCentroid) Name() string { return "phase_centroid_rad" }

func (p *PhaseCentroid) Observe(turn int, ps []bucket.Particle, ke float64) {
	p.value = Summarize(ps).Centroid
}

func (p *PhaseCentroid) Value() float64 { return p.value }
func (p *PhaseCentroid) Reset()         { p.value = 0 }
