package render

import (
	"github.com/guptarohit/asciigraph"
)

// Series draws a per-turn series for the terminal. Long series are
// decimated to width points by taking every n-th sample.
func Series(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	if width > 0 && len(data) > width {
		step := (len(data) + width - 1) / width
		thin := make([]float64, 0, width)
		for i := 0; i < len(data); i += step {
			thin = append(thin, data[i])
		}
		data = thin
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
