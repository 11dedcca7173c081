package bucket

import (
	"errors"
	"fmt"
)

// Observer receives the ensemble after every turn. The particle slice is
// owned by the ensemble and must not be retained.
type Observer interface {
	OnTurn(turn int, particles []Particle, kineticEnergy float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(turn int, particles []Particle, kineticEnergy float64)

func (f ObserverFunc) OnTurn(turn int, particles []Particle, ke float64) { f(turn, particles, ke) }

// Ensemble advances a fixed set of particles turn by turn. The kinetic
// energy of the synchronous particle is shared by all members and kept
// here once.
type Ensemble struct {
	machine   Machine
	controls  *Controls
	particles []Particle
	ke        float64
	turn      int
	lost      int
	observers []Observer
}

// NewEnsemble seeds n particles from src.
func NewEnsemble(machine Machine, controls *Controls, n int, initialKE float64, src Source) (*Ensemble, error) {
	if n < 0 {
		return nil, fmt.Errorf("bucket: negative particle count %d", n)
	}
	return NewEnsembleFrom(machine, controls, SeedParticles(src, n), initialKE)
}

// NewEnsembleFrom builds an ensemble from explicit initial states. The
// slice is copied.
func NewEnsembleFrom(machine Machine, controls *Controls, particles []Particle, initialKE float64) (*Ensemble, error) {
	if machine.Harmonic != controls.Harmonic() {
		return nil, fmt.Errorf("%w: machine h=%d, controls h=%d",
			ErrUnsupportedHarmonic, machine.Harmonic, controls.Harmonic())
	}
	e := &Ensemble{
		machine:   machine,
		controls:  controls,
		particles: make([]Particle, len(particles)),
		ke:        initialKE,
	}
	copy(e.particles, particles)
	for _, p := range e.particles {
		if p.Lost {
			e.lost++
		}
	}
	return e, nil
}

func (e *Ensemble) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Step advances every particle by one turn using a single snapshot of
// the controls. Particles that leave the physical domain are frozen and
// reported in the returned error; the others are still advanced.
func (e *Ensemble) Step() error {
	prm := e.controls.Snapshot()
	e.turn++

	var errs []error
	for i := range e.particles {
		p := &e.particles[i]
		if p.Lost {
			continue
		}
		if err := e.machine.Turn(p, e.ke, prm); err != nil {
			p.Lost = true
			e.lost++
			errs = append(errs, &ParticleError{
				Index:   i,
				Turn:    e.turn,
				Phase:   p.Phase,
				Energy:  p.Energy,
				Wrapped: err,
			})
		}
	}
	e.ke += e.machine.KineticGain(prm)

	for _, o := range e.observers {
		o.OnTurn(e.turn, e.particles, e.ke)
	}
	return errors.Join(errs...)
}

// Particles returns a copy of the current states in ensemble order.
func (e *Ensemble) Particles() []Particle {
	out := make([]Particle, len(e.particles))
	copy(out, e.particles)
	return out
}

func (e *Ensemble) Particle(i int) Particle { return e.particles[i] }
func (e *Ensemble) KineticEnergy() float64  { return e.ke }
func (e *Ensemble) Turn() int               { return e.turn }
func (e *Ensemble) Len() int                { return len(e.particles) }
func (e *Ensemble) Lost() int               { return e.lost }
func (e *Ensemble) Controls() *Controls     { return e.controls }
func (e *Ensemble) Machine() Machine        { return e.machine }
