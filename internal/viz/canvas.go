package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille grid of Width x Height cells, each holding 2x4
// dots. World coordinates are mapped onto it through a Window.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

// Window is the world rectangle shown on the canvas.
type Window struct {
	MinX, MaxX, MinY, MaxY float64
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). The canvas is (Width*2) x
// (Height*4) sub-pixels with y growing downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// toPixel maps a world point; ok is false outside the window.
func (c *Canvas) toPixel(w Window, x, y float64) (px, py int, ok bool) {
	if math.IsNaN(x) || math.IsNaN(y) || x < w.MinX || x > w.MaxX || y < w.MinY || y > w.MaxY {
		return 0, 0, false
	}
	cw, ch := float64(c.Width*2-1), float64(c.Height*4-1)
	px = int(math.Round((x - w.MinX) / (w.MaxX - w.MinX) * cw))
	py = int(math.Round((w.MaxY - y) / (w.MaxY - w.MinY) * ch))
	return px, py, true
}

// Plot lights the dot nearest to world point (x, y). Points outside the
// window are dropped and reported false.
func (c *Canvas) Plot(w Window, x, y float64) bool {
	px, py, ok := c.toPixel(w, x, y)
	if ok {
		c.Set(px, py)
	}
	return ok
}

// Axes draws the x=0 and y=0 lines when they are inside the window.
func (c *Canvas) Axes(w Window) {
	if px, _, ok := c.toPixel(w, 0, w.MinY); ok {
		for y := 0; y < c.Height*4; y += 2 {
			c.Set(px, y)
		}
	}
	if _, py, ok := c.toPixel(w, w.MinX, 0); ok {
		for x := 0; x < c.Width*2; x += 2 {
			c.Set(x, py)
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}
