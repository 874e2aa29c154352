package fvm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// pivotTolerance bounds how small a Thomas pivot may get relative to its row
// before the operator is treated as singular.
const pivotTolerance = 1e-14

// Solver applies a factorization of the implicit operator. Solve writes the
// solution of A·dst = rhs into dst.
type Solver interface {
	Solve(dst, rhs []float64) error
}

// Thomas is an LU factorization of a tridiagonal matrix without pivoting.
// Diagonal dominance of A keeps every pivot away from zero.
type Thomas struct {
	lower []float64 // sub-diagonal of A
	upper []float64 // super-diagonal scaled by the preceding pivot
	inv   []float64 // reciprocal pivots
}

// FactorThomas factorizes a in O(n).
func FactorThomas(a *mat.Tridiag) (*Thomas, error) {
	raw := a.RawTridiagonal()
	n := raw.N

	t := &Thomas{
		lower: append([]float64(nil), raw.DL...),
		upper: make([]float64, len(raw.DU)),
		inv:   make([]float64, n),
	}

	for i := 0; i < n; i++ {
		pivot := raw.D[i]
		scale := math.Abs(raw.D[i])
		if i > 0 {
			pivot -= raw.DL[i-1] * t.upper[i-1]
			scale += math.Abs(raw.DL[i-1])
		}
		if i < n-1 {
			scale += math.Abs(raw.DU[i])
		}
		if !isFinite(pivot) || math.Abs(pivot) <= pivotTolerance*scale {
			return nil, &StageError{
				Stage: StageFactorization,
				Err:   fmt.Errorf("%w: pivot %g at row %d", ErrFactorization, pivot, i),
			}
		}
		t.inv[i] = 1 / pivot
		if i < n-1 {
			t.upper[i] = raw.DU[i] * t.inv[i]
		}
	}

	return t, nil
}

// Size returns the order of the factorized matrix.
func (t *Thomas) Size() int { return len(t.inv) }

// Solve runs forward elimination and back substitution. dst and rhs may be
// the same slice.
func (t *Thomas) Solve(dst, rhs []float64) error {
	n := len(t.inv)
	if len(dst) != n || len(rhs) != n {
		return fmt.Errorf("%w: system has %d rows, got dst %d rhs %d", ErrDimension, n, len(dst), len(rhs))
	}

	dst[0] = rhs[0] * t.inv[0]
	for i := 1; i < n; i++ {
		dst[i] = (rhs[i] - t.lower[i-1]*dst[i-1]) * t.inv[i]
	}
	for i := n - 2; i >= 0; i-- {
		dst[i] -= t.upper[i] * dst[i+1]
	}
	return nil
}

// DenseLU factorizes the operator as a general dense matrix with partial
// pivoting. It costs O(n³) once and O(n²) per solve and exists to cross-check
// the banded path.
type DenseLU struct {
	lu mat.LU
	n  int
}

// FactorLU factorizes any square matrix, including a *mat.Tridiag.
func FactorLU(a mat.Matrix) (*DenseLU, error) {
	r, c := a.Dims()
	if r != c {
		return nil, &StageError{
			Stage: StageFactorization,
			Err:   fmt.Errorf("%w: matrix is %d×%d", ErrDimension, r, c),
		}
	}

	f := &DenseLU{n: r}
	f.lu.Factorize(a)
	if cond := f.lu.Cond(); math.IsNaN(cond) || cond > mat.ConditionTolerance {
		return nil, &StageError{
			Stage: StageFactorization,
			Err:   fmt.Errorf("%w: condition number %g", ErrFactorization, cond),
		}
	}
	return f, nil
}

func (f *DenseLU) Size() int { return f.n }

// Solve solves A·dst = rhs. dst and rhs must not overlap.
func (f *DenseLU) Solve(dst, rhs []float64) error {
	if len(dst) != f.n || len(rhs) != f.n {
		return fmt.Errorf("%w: system has %d rows, got dst %d rhs %d", ErrDimension, f.n, len(dst), len(rhs))
	}
	x := mat.NewVecDense(f.n, dst)
	b := mat.NewVecDense(f.n, rhs)
	if err := f.lu.SolveVecTo(x, false, b); err != nil {
		return fmt.Errorf("%w: %v", ErrFactorization, err)
	}
	return nil
}
