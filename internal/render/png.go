package render

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/bucketsim/internal/bucket"
)

type PNGOptions struct {
	Title     string
	WidthIn   float64
	HeightIn  float64
	DPI       int
	EnergyMax float64 // MeV, y range is +-EnergyMax; 0 fits the data
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Title: "Longitudinal phase space", WidthIn: 6, HeightIn: 6, DPI: 150}
}

// PhaseSpacePlot builds a scatter of (phase, energy) for the live
// particles. The x range is always the wrap window [-2pi, 2pi].
func PhaseSpacePlot(ps []bucket.Particle, kineticEnergy float64, opts PNGOptions) (*plot.Plot, error) {
	pts := make(plotter.XYs, 0, len(ps))
	for _, p := range ps {
		if p.Lost {
			continue
		}
		pts = append(pts, plotter.XY{X: p.Phase, Y: p.Energy * 1e-6})
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s  (KE %.2f MeV)", opts.Title, kineticEnergy*1e-6)
	p.X.Label.Text = "phase [rad]"
	p.Y.Label.Text = "dE [MeV]"
	p.X.Min, p.X.Max = -2*math.Pi, 2*math.Pi
	p.Add(plotter.NewGrid())

	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = color.RGBA{B: 200, A: 255}
		sc.GlyphStyle.Radius = vg.Points(1)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
	}
	if opts.EnergyMax > 0 {
		p.Y.Min, p.Y.Max = -opts.EnergyMax, opts.EnergyMax
	}
	return p, nil
}

// WritePNG draws p onto w.
func WritePNG(w io.Writer, p *plot.Plot, opts PNGOptions) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.WidthIn)*vg.Inch, vg.Length(opts.HeightIn)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func WritePhaseSpace(w io.Writer, ps []bucket.Particle, kineticEnergy float64, opts PNGOptions) error {
	p, err := PhaseSpacePlot(ps, kineticEnergy, opts)
	if err != nil {
		return err
	}
	return WritePNG(w, p, opts)
}
