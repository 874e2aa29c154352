package fvm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// System holds the Crank-Nicolson operators for one grid: A multiplies the
// unknown field and B the known one. Both are tridiagonal and read-only once
// assembled.
type System struct {
	A *mat.Tridiag
	B *mat.Tridiag
	R float64
}

// Size returns the number of cells the operators act on.
func (s *System) Size() int {
	n, _ := s.A.Dims()
	return n
}

// AssembleGrid assembles the operators for g using its diffusion ratio.
func AssembleGrid(g Grid) (*System, error) {
	return Assemble(g.N(), g.Ratio())
}

// Assemble builds A and B for n cells and diffusion ratio r.
//
// Interior rows carry (-r, 1+2r, -r) and (r, 1-2r, r). The wall rows use 3r on
// the diagonal: the ghost value beyond the wall is the negated cell value, so
// the wall face contributes a second r on top of the missing neighbour.
func Assemble(n int, r float64) (*System, error) {
	if n < 2 {
		return nil, &StageError{
			Stage: StageAssembly,
			Err:   fmt.Errorf("%w: need at least 2 cells, got %d", ErrConfiguration, n),
		}
	}
	if !(r > 0) || math.IsInf(r, 0) {
		return nil, &StageError{
			Stage: StageAssembly,
			Err:   fmt.Errorf("%w: diffusion ratio must be positive and finite, got %g", ErrConfiguration, r),
		}
	}

	a := mat.NewTridiag(n, nil, nil, nil)
	b := mat.NewTridiag(n, nil, nil, nil)
	for i := 0; i < n; i++ {
		diag := 2 * r
		if i == 0 || i == n-1 {
			diag = 3 * r
		}
		a.SetBand(i, i, 1+diag)
		b.SetBand(i, i, 1-diag)
		if i > 0 {
			a.SetBand(i, i-1, -r)
			b.SetBand(i, i-1, r)
		}
		if i < n-1 {
			a.SetBand(i, i+1, -r)
			b.SetBand(i, i+1, r)
		}
	}

	return &System{A: a, B: b, R: r}, nil
}
