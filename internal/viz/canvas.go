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

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
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

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels with y growing downwards.
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
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Polyline draws values spread evenly across the full width, mapping
// [lo, hi] to the full height. Points outside the range are clipped.
func (c *Canvas) Polyline(values []float64, lo, hi float64) {
	if len(values) == 0 {
		return
	}
	w, h := c.Width*2, c.Height*4
	span := hi - lo
	if span <= 0 || math.IsNaN(span) {
		span = 1
	}

	project := func(i int, v float64) (int, int) {
		x := 0
		if len(values) > 1 {
			x = int(math.Round(float64(i) / float64(len(values)-1) * float64(w-1)))
		}
		y := int(math.Round((1 - (v-lo)/span) * float64(h-1)))
		return x, y
	}

	px, py := project(0, values[0])
	c.Set(px, py)
	for i := 1; i < len(values); i++ {
		x, y := project(i, values[i])
		c.DrawLine(px, py, x, y)
		px, py = x, y
	}
}

// Dots marks each value without joining them.
func (c *Canvas) Dots(values []float64, lo, hi float64, every int) {
	if every < 1 {
		every = 1
	}
	w, h := c.Width*2, c.Height*4
	span := hi - lo
	if span <= 0 || math.IsNaN(span) {
		span = 1
	}
	for i := 0; i < len(values); i += every {
		x := 0
		if len(values) > 1 {
			x = int(math.Round(float64(i) / float64(len(values)-1) * float64(w-1)))
		}
		y := int(math.Round((1 - (values[i]-lo)/span) * float64(h-1)))
		c.Set(x, y)
		c.Set(x, y-1)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
