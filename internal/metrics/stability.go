package metrics

import (
	"math"

	"github.com/san-kum/bucketsim/internal/bucket"
)

// Survival is the fraction of particles not frozen by a domain failure.
type Survival struct {
	value   float64
	samples int
}

func NewSurvival() *Survival { return &Survival{} }

func (s *Survival) Name() string { return "survival" }

func (s *Survival) Observe(turn int, ps []bucket.Particle, ke float64) {
	s.samples++
	if len(ps) == 0 {
		s.value = 1
		return
	}
	live := 0
	for _, p := range ps {
		if !p.Lost {
			live++
		}
	}
	s.value = float64(live) / float64(len(ps))
}

func (s *Survival) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return s.value
}

func (s *Survival) Reset() {
	s.value = 0
	s.samples = 0
}

// Captured is the fraction of the ensemble inside |phase| < Limit at the
// last turn.
type Captured struct {
	Limit float64
	value float64
}

func NewCaptured(limit float64) *Captured { return &Captured{Limit: limit} }

func (c *Captured) Name() string { return "captured" }

func (c *Captured) Observe(turn int, ps []bucket.Particle, ke float64) {
	if len(ps) == 0 {
		c.value = 0
		return
	}
	in := 0
	for _, p := range ps {
		if !p.Lost && math.Abs(p.Phase) < c.Limit {
			in++
		}
	}
	c.value = float64(in) / float64(len(ps))
}

func (c *Captured) Value() float64 { return c.value }
func (c *Captured) Reset()         { c.value = 0 }
