// Package analytic evaluates the closed-form solution of u_x = 2u_yy + S on
// y ∈ [0, 1] with homogeneous Dirichlet walls and a zero initial field.
//
// The solution is the steady parabola minus a decaying sine series over the
// odd modes:
//
//	u(x, y) = (S/2)·[ y(1-y)/2 - Σ 4/(nπ)³ · exp(-2x(nπ)²) · sin(nπy) ]
//
// Exact evaluates the S = 2 case; Series scales it to any source.
package analytic

import (
	"errors"
	"fmt"
	"math"
)

// DefaultTerms is the series truncation used when none is given. The first
// omitted mode has amplitude below 1e-9.
const DefaultTerms = 100

// ErrOutOfDomain indicates an evaluation point outside x ≥ 0, y ∈ [0, 1].
var ErrOutOfDomain = errors.New("analytic: point outside solution domain")

// Steady returns the x → ∞ profile for S = 2.
func Steady(y float64) float64 {
	return 0.5 * y * (1 - y)
}

// Exact returns u(x, y) for S = 2 truncated to terms odd modes. terms <= 0
// selects DefaultTerms.
func Exact(x, y float64, terms int) float64 {
	if terms <= 0 {
		terms = DefaultTerms
	}
	u := Steady(y)
	for k := 0; k < terms; k++ {
		npi := float64(2*k+1) * math.Pi
		decay := math.Exp(-2 * x * npi * npi)
		if decay == 0 {
			break
		}
		u -= 4 / (npi * npi * npi) * decay * math.Sin(npi*y)
	}
	return u
}

// Series is the solution for an arbitrary source strength.
type Series struct {
	Source float64
	Terms  int
}

// At returns u(x, y). The point is not checked against the domain.
func (s Series) At(x, y float64) float64 {
	return s.Source / 2 * Exact(x, y, s.Terms)
}

// Profile evaluates the solution at every y for a single x.
func (s Series) Profile(x float64, ys []float64) ([]float64, error) {
	if x < 0 || math.IsNaN(x) {
		return nil, fmt.Errorf("%w: x = %g", ErrOutOfDomain, x)
	}
	out := make([]float64, len(ys))
	for i, y := range ys {
		if !(y >= 0 && y <= 1) {
			return nil, fmt.Errorf("%w: y = %g", ErrOutOfDomain, y)
		}
		out[i] = s.At(x, y)
	}
	return out, nil
}

// Mode returns the coefficient of sin(nπy) in u(x, ·). Even modes vanish; odd
// modes grow from zero towards the steady coefficient (S/2)·4/(nπ)³.
func (s Series) Mode(n int, x float64) float64 {
	if n < 1 || n%2 == 0 {
		return 0
	}
	npi := float64(n) * math.Pi
	return s.Source / 2 * 4 / (npi * npi * npi) * -math.Expm1(-2*x*npi*npi)
}
