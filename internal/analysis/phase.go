package analysis

import (
	"strings"

	"github.com/san-kum/bucketsim/internal/bucket"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds (phase, energy) points for plotting. A nil Bounds
// means fit to the data.
type PhasePortrait struct {
	Points []Point
	Bounds *Bounds
}

type Bounds struct {
	MinX, MaxX, MinY, MaxY float64
}

// PortraitFromParticles takes a snapshot, skipping frozen particles.
// Energies are given in MeV.
func PortraitFromParticles(ps []bucket.Particle) *PhasePortrait {
	p := &PhasePortrait{Points: make([]Point, 0, len(ps))}
	for _, q := range ps {
		if q.Lost {
			continue
		}
		p.Points = append(p.Points, Point{X: q.Phase, Y: q.Energy * 1e-6})
	}
	return p
}

// PortraitFromTrack builds the orbit of a single particle.
func PortraitFromTrack(phases, energies []float64) *PhasePortrait {
	n := min(len(phases), len(energies))
	p := &PhasePortrait{Points: make([]Point, n)}
	for i := 0; i < n; i++ {
		p.Points[i] = Point{X: phases[i], Y: energies[i] * 1e-6}
	}
	return p
}

func (p *PhasePortrait) bounds() Bounds {
	if p.Bounds != nil {
		return *p.Bounds
	}
	b := Bounds{p.Points[0].X, p.Points[0].X, p.Points[0].Y, p.Points[0].Y}
	for _, pt := range p.Points {
		b.MinX, b.MaxX = min(b.MinX, pt.X), max(b.MaxX, pt.X)
		b.MinY, b.MaxY = min(b.MinY, pt.Y), max(b.MaxY, pt.Y)
	}

	// pad
	rangeX, rangeY := b.MaxX-b.MinX, b.MaxY-b.MinY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.MinX -= rangeX * 0.1
	b.MaxX += rangeX * 0.1
	b.MinY -= rangeY * 0.1
	b.MaxY += rangeY * 0.1
	return b
}

// ToASCII renders the portrait on a width x height character grid with
// the axes drawn through the origin.
func (p *PhasePortrait) ToASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}
	b := p.bounds()
	rangeX, rangeY := b.MaxX-b.MinX, b.MaxY-b.MinY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	for _, pt := range p.Points {
		col := int((pt.X - b.MinX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-b.MinY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if b.MinX <= 0 && b.MaxX >= 0 {
		col := int((0 - b.MinX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if b.MinY <= 0 && b.MaxY >= 0 {
		row := height - 1 - int((0-b.MinY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
