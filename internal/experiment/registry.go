package experiment

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cnmarch/internal/analytic"
	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/fvm"
	"github.com/san-kum/cnmarch/internal/metrics"
)

// Factorizer prepares a Solver for the implicit operator.
type Factorizer func(a *mat.Tridiag) (fvm.Solver, error)

type Registry struct {
	solvers map[string]Factorizer
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]Factorizer),
	}

	r.solvers[config.SolverThomas] = func(a *mat.Tridiag) (fvm.Solver, error) {
		t, err := fvm.FactorThomas(a)
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	r.solvers[config.SolverLU] = func(a *mat.Tridiag) (fvm.Solver, error) {
		lu, err := fvm.FactorLU(a)
		if err != nil {
			return nil, err
		}
		return lu, nil
	}

	return r
}

func (r *Registry) Register(name string, f Factorizer) {
	r.solvers[name] = f
}

func (r *Registry) GetSolver(name string) (Factorizer, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown solver: %s", fvm.ErrConfiguration, name)
	}
	return fn, nil
}

func (r *Registry) ListSolvers() []string {
	return slices.Sorted(maps.Keys(r.solvers))
}

// DefaultMetrics returns fresh metric instances for one march on grid. The
// stability threshold is ten times the steady peak, and never below 1.
func (r *Registry) DefaultMetrics(grid fvm.Grid, source float64) []fvm.Metric {
	mid := (grid.YMin() + grid.YMax()) / 2
	bound := math.Max(1, 10*math.Abs(source/2*analytic.Steady(mid)))
	return []fvm.Metric{
		metrics.NewMaxResidual(),
		metrics.NewFinalResidual(),
		metrics.NewPeak(),
		metrics.NewStability(bound),
		metrics.NewSteadyDistance(grid.CellCenters(), grid.Dy(), source),
	}
}
