package bucket

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Params is one immutable snapshot of the live RF settings.
type Params struct {
	SyncPhase float64 // radians
	Voltage   float64 // volts, display scaling already applied
}

// Controls holds the operator-adjustable RF settings. Setters publish a
// fresh Params record so readers always see a consistent pair.
type Controls struct {
	harmonic int
	scale    float64
	current  atomic.Pointer[Params]
}

// NewControls takes the initial phase in radians and voltage in volts.
func NewControls(harmonic int, syncPhase, voltage, scale float64) (*Controls, error) {
	if harmonic != 2 && harmonic != 4 {
		return nil, fmt.Errorf("%w: %d (want 2 or 4)", ErrUnsupportedHarmonic, harmonic)
	}
	c := &Controls{harmonic: harmonic, scale: scale}
	c.current.Store(&Params{SyncPhase: syncPhase, Voltage: voltage})
	return c, nil
}

func (c *Controls) Harmonic() int        { return c.harmonic }
func (c *Controls) ScaleFactor() float64 { return c.scale }

// Snapshot returns the settings a turn should use.
func (c *Controls) Snapshot() Params {
	return *c.current.Load()
}

// Apply publishes both settings at once.
func (c *Controls) Apply(p Params) {
	next := p
	c.current.Store(&next)
}

// SetSynchronousPhase takes degrees.
func (c *Controls) SetSynchronousPhase(deg float64) {
	c.update(func(p *Params) { p.SyncPhase = DegreesToRadians(deg) })
}

// SetRFVoltageAmplitude takes kilovolts as shown on the control surface.
func (c *Controls) SetRFVoltageAmplitude(kv float64) {
	scale := c.scale
	c.update(func(p *Params) { p.Voltage = KilovoltsToVolts(kv, scale) })
}

func (c *Controls) SynchronousPhaseDegrees() float64 {
	return c.Snapshot().SyncPhase * 180 / math.Pi
}

func (c *Controls) RFVoltageKilovolts() float64 {
	return VoltsToKilovolts(c.Snapshot().Voltage, c.scale)
}

func (c *Controls) update(fn func(p *Params)) {
	for {
		old := c.current.Load()
		next := *old
		fn(&next)
		if c.current.CompareAndSwap(old, &next) {
			return
		}
	}
}

func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func KilovoltsToVolts(kv, scale float64) float64 {
	return kv * 1e3 * scale
}

func VoltsToKilovolts(v, scale float64) float64 {
	if scale == 0 {
		return 0
	}
	return v / 1e3 / scale
}
