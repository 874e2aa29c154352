package metrics

import (
	"math"

	"github.com/san-kum/cnmarch/internal/analytic"
	"github.com/san-kum/cnmarch/internal/fvm"
)

// Peak is the largest cell value seen over the whole march.
type Peak struct {
	name    string
	peak    float64
	samples int
}

func NewPeak() *Peak {
	return &Peak{name: "peak"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(n int, x float64, u fvm.Field) {
	for _, val := range u {
		if p.samples == 0 || val > p.peak {
			p.peak = val
		}
		p.samples++
	}
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() {
	p.peak = 0
	p.samples = 0
}

// SteadyDistance is the grid L2 distance between the latest snapshot and the
// x → ∞ profile, evaluated at the given cell centres.
type SteadyDistance struct {
	name   string
	steady []float64
	dy     float64
	value  float64
}

func NewSteadyDistance(centers []float64, dy, source float64) *SteadyDistance {
	steady := make([]float64, len(centers))
	for i, y := range centers {
		steady[i] = source / 2 * analytic.Steady(y)
	}
	return &SteadyDistance{
		name:   "steady_distance",
		steady: steady,
		dy:     dy,
	}
}

func (s *SteadyDistance) Name() string { return s.name }

func (s *SteadyDistance) Observe(n int, x float64, u fvm.Field) {
	if len(u) != len(s.steady) {
		return
	}
	s.value = math.Sqrt(s.dy) * u.Distance(s.steady)
}

func (s *SteadyDistance) Value() float64 { return s.value }

func (s *SteadyDistance) Reset() { s.value = 0 }
