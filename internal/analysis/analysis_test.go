package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/bucketsim/internal/bucket"
)

func TestSynchrotronTune(t *testing.T) {
	data := make([]float64, 256)
	for i := range data {
		data[i] = 0.3 + math.Cos(2*math.Pi*0.0625*float64(i))
	}
	if got := SynchrotronTune(data); math.Abs(got-0.0625) > 1e-12 {
		t.Errorf("expected tune 0.0625, got %f", got)
	}
}

func TestSynchrotronTunePadded(t *testing.T) {
	data := make([]float64, 200)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 0.1 * float64(i))
	}
	// 200 samples pad to 256, so the resolution is 1/256 per turn
	if got := SynchrotronTune(data); math.Abs(got-0.1) > 1.0/256 {
		t.Errorf("expected tune near 0.1, got %f", got)
	}
}

func TestSynchrotronTuneFlat(t *testing.T) {
	data := []float64{2, 2, 2, 2, 2, 2, 2, 2}
	if got := SynchrotronTune(data); got != 0 {
		t.Errorf("expected 0 for a constant series, got %f", got)
	}
	if got := SynchrotronTune([]float64{1}); got != 0 {
		t.Errorf("expected 0 for a single sample, got %f", got)
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	if len(ps) != 64 {
		t.Errorf("expected 64 bins, got %d", len(ps))
	}
	if ps := PowerSpectrum(nil); ps != nil {
		t.Error("expected nil spectrum for empty input")
	}
}

func TestPortraitFromParticles(t *testing.T) {
	p := PortraitFromParticles([]bucket.Particle{
		{Phase: 1, Energy: 2e6},
		{Phase: 3, Energy: 0, Lost: true},
	})
	if len(p.Points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(p.Points))
	}
	if p.Points[0] != (Point{X: 1, Y: 2}) {
		t.Errorf("expected (1, 2 MeV), got %+v", p.Points[0])
	}
}

func TestPortraitFromTrack(t *testing.T) {
	p := PortraitFromTrack([]float64{0, 1, 2}, []float64{1e6, 2e6})
	if len(p.Points) != 2 {
		t.Errorf("expected the shorter length, got %d", len(p.Points))
	}
}

func TestToASCII(t *testing.T) {
	p := &PhasePortrait{
		Points: []Point{{-1, -1}, {1, 1}},
		Bounds: &Bounds{MinX: -2, MaxX: 2, MinY: -2, MaxY: 2},
	}
	out := p.ToASCII(21, 11)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("expected 11 rows, got %d", len(lines))
	}
	if strings.Count(out, "•") != 2 {
		t.Errorf("expected 2 points plotted, got %d", strings.Count(out, "•"))
	}
	if !strings.Contains(out, "│") || !strings.Contains(out, "─") {
		t.Error("expected both axes to be drawn")
	}

	var empty *PhasePortrait
	if empty.ToASCII(10, 10) != "" {
		t.Error("nil portrait should render empty")
	}
}
