package viz

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CanvasToSVG draws every lit braille dot as a circle, scale pixels per
// sub-pixel.
func CanvasToSVG(canvas *Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ccff">
`, width, height, width, height)

	dotRadius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := int(canvas.Grid[row][col] - blank)
			if pattern <= 0 {
				continue
			}
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] != 0 {
						cx := baseX + float64(dx)*scale + scale/2
						cy := baseY + float64(dy)*scale + scale/2
						fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
					}
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// WriteSVG writes the canvas to w.
func WriteSVG(w io.Writer, canvas *Canvas, scale float64) error {
	_, err := io.WriteString(w, CanvasToSVG(canvas, scale))
	return err
}

// saveSnapshot writes the current canvas to dir/phase_<turn>.svg.
func (m *Model) saveSnapshot() (string, error) {
	path := filepath.Join(m.snapshotDir, fmt.Sprintf("phase_%06d.svg", m.sim.Ensemble().Turn()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteSVG(f, m.canvas, 4); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
