package viz

import (
	"fmt"
	"math"
	"strings"
)

type sliderKind int

const (
	sliderPhase sliderKind = iota
	sliderVoltage
)

// slider mirrors a control-room scale widget: a bounded value moved in
// fixed steps. The bounds belong to the widget, not to the physics.
type slider struct {
	kind        sliderKind
	label, unit string
	min, max    float64
	step, value float64
}

func newPhaseSlider(v float64) slider {
	s := slider{kind: sliderPhase, label: "phi_s", unit: "deg", min: 0, max: 45, step: 0.1}
	s.set(v)
	return s
}

func newVoltageSlider(v float64) slider {
	s := slider{kind: sliderVoltage, label: "RF voltage", unit: "kV", min: 0, max: 200, step: 0.1}
	s.set(v)
	return s
}

func (s *slider) set(v float64) {
	v = math.Round(v/s.step) * s.step
	s.value = math.Max(s.min, math.Min(s.max, v))
}

func (s *slider) nudge(n int) {
	s.set(s.value + float64(n)*s.step)
}

func (s slider) String() string {
	const barWidth = 12
	ratio := 0.0
	if s.max > s.min {
		ratio = (s.value - s.min) / (s.max - s.min)
	}
	filled := int(ratio * barWidth)
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat("-", barWidth-filled) + "]"
	return fmt.Sprintf("%-10s %s %6.1f %s", s.label, bar, s.value, s.unit)
}
