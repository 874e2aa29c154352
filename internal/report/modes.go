package report

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/cnmarch/internal/analytic"
	"github.com/san-kum/cnmarch/internal/fvm"
)

// Mode is one sine coefficient of a snapshot next to its analytical value.
type Mode struct {
	N          int     `json:"n"`
	Numerical  float64 `json:"numerical"`
	Analytical float64 `json:"analytical"`
}

// SineCoefficients returns b_1..b_count of a cell-centred profile on [0, 1],
// u(y) ≈ Σ b_n sin(nπy). The transform is a DST-II computed through an FFT
// of the odd extension.
func SineCoefficients(u []float64, count int) []float64 {
	n := len(u)
	if n == 0 || count <= 0 {
		return nil
	}
	ext := make([]float64, 2*n)
	for j, v := range u {
		ext[j] = v
		ext[2*n-1-j] = -v
	}
	spectrum := fft.FFTReal(ext)

	out := make([]float64, count)
	for k := 1; k <= count && k < 2*n; k++ {
		shift := cmplx.Exp(complex(0, -math.Pi*float64(k)/float64(2*n)))
		x := real(complex(0, 0.5) * shift * spectrum[k])
		out[k-1] = 2 * x / float64(n)
	}
	return out
}

// Modes compares the first count sine coefficients of snapshot idx against
// the analytical amplitudes. The grid must span exactly [0, 1].
func (r *Reporter) Modes(idx, count int) ([]Mode, error) {
	if r.grid.YMin() != 0 || r.grid.YMax() != 1 {
		return nil, fmt.Errorf("%w: modes need y in [0, 1], grid is [%g, %g]",
			analytic.ErrOutOfDomain, r.grid.YMin(), r.grid.YMax())
	}
	if idx < 0 || idx >= r.hist.Len() {
		return nil, fmt.Errorf("%w: snapshot %d of %d", fvm.ErrDimension, idx, r.hist.Len())
	}

	x := r.hist.X[idx]
	coeffs := SineCoefficients(r.hist.U[idx], count)
	out := make([]Mode, len(coeffs))
	for i, b := range coeffs {
		out[i] = Mode{
			N:          i + 1,
			Numerical:  b,
			Analytical: r.series.Mode(i+1, x),
		}
	}
	return out, nil
}
