package fvm

import (
	"fmt"
	"math"
)

// Grid describes the cross-stream finite-volume cells and the marching steps.
// The zero value is not usable; build one with NewGrid.
type Grid struct {
	n          int
	yMin, yMax float64
	dy         float64
	nx         int
	xMax       float64
	dx         float64
}

// NewGrid validates the discretization and derives dy and dx.
func NewGrid(n int, yMin, yMax float64, nx int, xMax float64) (Grid, error) {
	if n < 2 {
		return Grid{}, fmt.Errorf("%w: n must be at least 2, got %d", ErrConfiguration, n)
	}
	if nx < 1 {
		return Grid{}, fmt.Errorf("%w: nx must be at least 1, got %d", ErrConfiguration, nx)
	}
	if !isFinite(yMin) || !isFinite(yMax) || yMax <= yMin {
		return Grid{}, fmt.Errorf("%w: y_max must exceed y_min, got [%g, %g]", ErrConfiguration, yMin, yMax)
	}
	if !isFinite(xMax) || xMax <= 0 {
		return Grid{}, fmt.Errorf("%w: x_max must be positive, got %g", ErrConfiguration, xMax)
	}
	return Grid{
		n:    n,
		yMin: yMin,
		yMax: yMax,
		dy:   (yMax - yMin) / float64(n),
		nx:   nx,
		xMax: xMax,
		dx:   xMax / float64(nx),
	}, nil
}

func (g Grid) N() int        { return g.n }
func (g Grid) Nx() int       { return g.nx }
func (g Grid) YMin() float64 { return g.yMin }
func (g Grid) YMax() float64 { return g.yMax }
func (g Grid) XMax() float64 { return g.xMax }
func (g Grid) Dy() float64   { return g.dy }
func (g Grid) Dx() float64   { return g.dx }

// Ratio returns the diffusion ratio r = dx/dy².
func (g Grid) Ratio() float64 {
	return g.dx / (g.dy * g.dy)
}

// CellCenters returns the centroid of every cell.
func (g Grid) CellCenters() []float64 {
	ys := make([]float64, g.n)
	for i := range ys {
		ys[i] = g.yMin + (float64(i)+0.5)*g.dy
	}
	return ys
}

// MarchPosition returns x_n = n·dx. The last position is exactly x_max.
func (g Grid) MarchPosition(n int) float64 {
	if n == g.nx {
		return g.xMax
	}
	return float64(n) * g.dx
}

func (g Grid) String() string {
	return fmt.Sprintf("n=%d y=[%g, %g] dy=%g nx=%d x_max=%g dx=%g r=%g",
		g.n, g.yMin, g.yMax, g.dy, g.nx, g.xMax, g.dx, g.Ratio())
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
