// Package report compares a march history against the analytical solution.
// Everything here is a pure function of the history; nothing is printed.
package report

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/cnmarch/internal/analytic"
	"github.com/san-kum/cnmarch/internal/fvm"
)

// Nearest returns the index of the x closest to target. Ties go to the
// earlier index. It returns -1 for an empty slice.
func Nearest(xs []float64, target float64) int {
	best := -1
	bestDist := math.Inf(1)
	for i, x := range xs {
		if d := math.Abs(x - target); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// L2 is the Euclidean distance between two profiles.
func L2(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// GridL2 is the discrete L2 norm of a - b on cells of width dy.
func GridL2(a, b []float64, dy float64) float64 {
	return math.Sqrt(dy) * L2(a, b)
}

// Comparison pairs the snapshot nearest a requested x with the analytical
// profile at that snapshot's x.
type Comparison struct {
	Target     float64   `json:"target"`
	X          float64   `json:"x"`
	Index      int       `json:"index"`
	L2         float64   `json:"l2"`
	GridL2     float64   `json:"grid_l2"`
	Numerical  []float64 `json:"-"`
	Analytical []float64 `json:"-"`
}

// Series is a scalar quantity sampled along x.
type Series struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

func (s Series) Len() int { return len(s.X) }

// Max returns the largest value and its x. An empty series returns zeros.
func (s Series) Max() (x, y float64) {
	if len(s.Y) == 0 {
		return 0, 0
	}
	i := floats.MaxIdx(s.Y)
	return s.X[i], s.Y[i]
}

type Summary struct {
	Snapshots     int          `json:"snapshots"`
	FinalX        float64      `json:"final_x"`
	FinalL2       float64      `json:"final_l2"`
	FinalGridL2   float64      `json:"final_grid_l2"`
	MaxResidual   float64      `json:"max_residual"`
	FinalResidual float64      `json:"final_residual"`
	Comparisons   []Comparison `json:"comparisons"`
}

type Reporter struct {
	grid   fvm.Grid
	hist   *fvm.History
	series analytic.Series
	ys     []float64
}

// New checks that hist belongs to grid and that the grid lies inside the
// analytical domain.
func New(grid fvm.Grid, hist *fvm.History, series analytic.Series) (*Reporter, error) {
	if hist == nil || hist.Len() != grid.Nx()+1 || len(hist.U) != hist.Len() {
		return nil, fmt.Errorf("%w: history does not match %d marching steps", fvm.ErrDimension, grid.Nx())
	}
	for i, u := range hist.U {
		if len(u) != grid.N() {
			return nil, fmt.Errorf("%w: snapshot %d has %d cells, grid has %d", fvm.ErrDimension, i, len(u), grid.N())
		}
	}
	if grid.YMin() < 0 || grid.YMax() > 1 {
		return nil, fmt.Errorf("%w: grid spans [%g, %g]", analytic.ErrOutOfDomain, grid.YMin(), grid.YMax())
	}
	return &Reporter{
		grid:   grid,
		hist:   hist,
		series: series,
		ys:     grid.CellCenters(),
	}, nil
}

// Centers returns the y positions the comparisons are evaluated at.
func (r *Reporter) Centers() []float64 { return r.ys }

func (r *Reporter) compareAt(target float64, idx int) (Comparison, error) {
	x := r.hist.X[idx]
	exact, err := r.series.Profile(x, r.ys)
	if err != nil {
		return Comparison{}, err
	}
	num := r.hist.U[idx]
	return Comparison{
		Target:     target,
		X:          x,
		Index:      idx,
		L2:         L2(num, exact),
		GridL2:     GridL2(num, exact, r.grid.Dy()),
		Numerical:  num,
		Analytical: exact,
	}, nil
}

// Compare evaluates one comparison per target, in order.
func (r *Reporter) Compare(targets []float64) ([]Comparison, error) {
	out := make([]Comparison, 0, len(targets))
	for _, target := range targets {
		c, err := r.compareAt(target, Nearest(r.hist.X, target))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ErrorSeries returns the Euclidean error of every snapshot.
func (r *Reporter) ErrorSeries(ctx context.Context) (Series, error) {
	n := r.hist.Len()
	out := Series{
		X: append([]float64(nil), r.hist.X...),
		Y: make([]float64, n),
	}
	err := ParallelFor(ctx, n, 64, func(start, end int) error {
		for i := start; i < end; i++ {
			exact, err := r.series.Profile(r.hist.X[i], r.ys)
			if err != nil {
				return err
			}
			out.Y[i] = L2(r.hist.U[i], exact)
		}
		return nil
	})
	if err != nil {
		return Series{}, err
	}
	return out, nil
}

// ResidualSeries returns ‖u_{n+1} - u_n‖₂ against x_{n+1}.
func (r *Reporter) ResidualSeries() Series {
	n := r.hist.Len() - 1
	out := Series{
		X: make([]float64, n),
		Y: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		out.X[i] = r.hist.X[i+1]
		out.Y[i] = L2(r.hist.U[i+1], r.hist.U[i])
	}
	return out
}

func (r *Reporter) Summary(targets []float64) (*Summary, error) {
	comps, err := r.Compare(targets)
	if err != nil {
		return nil, err
	}
	last := r.hist.Len() - 1
	final, err := r.compareAt(r.hist.X[last], last)
	if err != nil {
		return nil, err
	}

	res := r.ResidualSeries()
	s := &Summary{
		Snapshots:   r.hist.Len(),
		FinalX:      final.X,
		FinalL2:     final.L2,
		FinalGridL2: final.GridL2,
		Comparisons: comps,
	}
	if res.Len() > 0 {
		_, s.MaxResidual = res.Max()
		s.FinalResidual = res.Y[res.Len()-1]
	}
	return s, nil
}
