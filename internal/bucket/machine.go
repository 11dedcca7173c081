package bucket

import "math"

const (
	// ProtonRestEnergy in eV.
	ProtonRestEnergy = 938.272e6
	// ISISTransitionGamma is the transition gamma of the ISIS synchrotron.
	ISISTransitionGamma = 5.034

	// relative phase between the fundamental and second harmonic in the
	// dual-harmonic system
	dualHarmonicTheta = math.Pi

	twoPi = 2 * math.Pi
)

// Machine holds the fixed lattice and RF constants of the ring.
type Machine struct {
	Harmonic        int
	RestEnergy      float64
	TransitionGamma float64
}

func NewMachine(harmonic int, restEnergy, transitionGamma float64) Machine {
	return Machine{Harmonic: harmonic, RestEnergy: restEnergy, TransitionGamma: transitionGamma}
}

// Turn applies one kick-drift step to p. ke is the kinetic energy of the
// synchronous particle at the start of the turn. On ErrDomain p is left
// untouched, including when the kick or drift overflows.
func (m Machine) Turn(p *Particle, ke float64, prm Params) error {
	gamma := (p.Energy+ke)/m.RestEnergy + 1
	if !(gamma > 1) || math.IsInf(gamma, 1) {
		return ErrDomain
	}
	beta := math.Sqrt(1 - 1/(gamma*gamma))
	slip := 1/(gamma*gamma) - 1/(m.TransitionGamma*m.TransitionGamma)

	v, phi, phiS := prm.Voltage, p.Phase, prm.SyncPhase
	energy := p.Energy
	switch m.Harmonic {
	case 2:
		energy += v * (math.Sin(phi) - math.Sin(phiS))
	case 4:
		energy += v*(math.Sin(phi)-math.Sin(phiS)) +
			v*(math.Sin(2*phi+dualHarmonicTheta)-math.Sin(2*phiS+dualHarmonicTheta))
	default:
		return ErrUnsupportedHarmonic
	}

	phi -= (twoPi * float64(m.Harmonic) * slip) / (m.RestEnergy * beta * beta * gamma) * energy
	if !finite(energy) || !finite(phi) {
		return ErrDomain
	}

	p.Energy = energy
	p.Phase = WrapPhase(phi)
	return nil
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// KineticGain is the energy gained by the synchronous particle in one
// turn. It does not depend on any individual particle.
func (m Machine) KineticGain(prm Params) float64 {
	switch m.Harmonic {
	case 2:
		return prm.Voltage * math.Sin(prm.SyncPhase)
	case 4:
		return prm.Voltage * (math.Sin(prm.SyncPhase) + math.Sin(2*prm.SyncPhase))
	}
	return 0
}

// WrapPhase sends a particle that leaves [-2pi, 2pi] to the opposite
// edge. The overshoot is discarded; this is not a modulo wrap.
func WrapPhase(phi float64) float64 {
	if phi > twoPi {
		return -twoPi
	}
	if phi < -twoPi {
		return twoPi
	}
	return phi
}
