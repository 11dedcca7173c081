package bucket

import (
	"errors"
	"fmt"
)

// Domain errors for the longitudinal map.
var (
	// ErrDomain indicates a particle whose total energy leaves no real
	// relativistic factor (gamma must stay above 1).
	ErrDomain = errors.New("bucket: invalid relativistic state (gamma <= 1)")

	// ErrUnsupportedHarmonic indicates a harmonic number the map has no
	// variant for.
	ErrUnsupportedHarmonic = errors.New("bucket: unsupported harmonic number")
)

// ParticleError reports a particle that was frozen during a turn.
type ParticleError struct {
	Index   int
	Turn    int
	Phase   float64
	Energy  float64
	Wrapped error
}

func (e *ParticleError) Error() string {
	return fmt.Sprintf("particle %d (turn %d, phase=%.4f, dE=%.4g eV): %v",
		e.Index, e.Turn, e.Phase, e.Energy, e.Wrapped)
}

func (e *ParticleError) Unwrap() error {
	return e.Wrapped
}
