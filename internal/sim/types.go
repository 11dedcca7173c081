package sim

import (
	"fmt"

	"github.com/san-kum/bucketsim/internal/bucket"
	"github.com/san-kum/bucketsim/internal/metrics"
)

// Renderer receives the ensemble after every driven turn. Returning
// false stops the driver.
type Renderer interface {
	Render(turn int, particles []bucket.Particle, kineticEnergy float64) bool
}

type RenderFunc func(turn int, particles []bucket.Particle, kineticEnergy float64) bool

func (f RenderFunc) Render(turn int, ps []bucket.Particle, ke float64) bool { return f(turn, ps, ke) }

// Result is the record of a headless run. Index 0 of every series is the
// initial state.
type Result struct {
	Turns         []int
	KineticEnergy []float64
	Summaries     []metrics.Summary
	Lost          []int
	Final         []bucket.Particle
	Metrics       map[string]float64
	Errors        []error
	StepsTaken    int
}

type SimError struct {
	Turn    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("turn %d: %s", e.Turn, e.Message)
}
