package metrics

import (
	"math"

	"github.com/san-kum/cnmarch/internal/fvm"
)

// Residual tracks the step-to-step change ‖u_n - u_{n-1}‖₂. It reports either
// the largest change seen or the last one.
type Residual struct {
	name  string
	final bool
	prev  fvm.Field
	max   float64
	last  float64
}

func NewMaxResidual() *Residual {
	return &Residual{name: "max_residual"}
}

func NewFinalResidual() *Residual {
	return &Residual{name: "final_residual", final: true}
}

func (r *Residual) Name() string { return r.name }

func (r *Residual) Observe(n int, x float64, u fvm.Field) {
	if r.prev != nil && len(r.prev) == len(u) {
		r.last = u.Distance(r.prev)
		r.max = math.Max(r.max, r.last)
	}
	r.prev = u
}

func (r *Residual) Value() float64 {
	if r.final {
		return r.last
	}
	return r.max
}

func (r *Residual) Reset() {
	r.prev = nil
	r.max = 0
	r.last = 0
}
