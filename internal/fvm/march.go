package fvm

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Phase is the lifecycle state of a Marcher.
type Phase int

const (
	PhaseInitializing Phase = iota
	PhaseMarching
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInitializing:
		return "initializing"
	case PhaseMarching:
		return "marching"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Observer is notified of every recorded snapshot. u must not be modified.
type Observer interface {
	OnStep(n int, x float64, u Field)
}

// Metric accumulates a scalar over the recorded snapshots of one march.
type Metric interface {
	Name() string
	Observe(n int, x float64, u Field)
	Value() float64
	Reset()
}

// History is the ordered record of (x_n, u_n) pairs produced by a march.
type History struct {
	X       []float64
	U       []Field
	Metrics map[string]float64
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int { return len(h.X) }

// Final returns the last recorded snapshot.
func (h *History) Final() (float64, Field) {
	last := len(h.X) - 1
	return h.X[last], h.U[last]
}

// Snapshots returns the snapshot matrix with one row per marching position.
// Rows share storage with the history.
func (h *History) Snapshots() [][]float64 {
	rows := make([][]float64, len(h.U))
	for i, u := range h.U {
		rows[i] = u
	}
	return rows
}

// Marcher advances the field along x. It owns the only mutable field and
// runs once.
type Marcher struct {
	grid      Grid
	system    *System
	solver    Solver
	source    float64
	phase     Phase
	metrics   []Metric
	observers []Observer
}

// NewMarcher binds a grid, its assembled operators and a factorization of A.
func NewMarcher(grid Grid, system *System, solver Solver, source float64) (*Marcher, error) {
	if system == nil || solver == nil {
		return nil, fmt.Errorf("%w: marcher needs a system and a solver", ErrConfiguration)
	}
	if system.Size() != grid.N() {
		return nil, fmt.Errorf("%w: system has %d rows, grid has %d cells", ErrDimension, system.Size(), grid.N())
	}
	if !isFinite(source) {
		return nil, fmt.Errorf("%w: source must be finite, got %g", ErrConfiguration, source)
	}
	return &Marcher{
		grid:      grid,
		system:    system,
		solver:    solver,
		source:    source,
		phase:     PhaseInitializing,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}, nil
}

func (m *Marcher) AddMetric(mt Metric)     { m.metrics = append(m.metrics, mt) }
func (m *Marcher) AddObserver(o Observer) { m.observers = append(m.observers, o) }

// Phase reports where the marcher is in its lifecycle.
func (m *Marcher) Phase() Phase { return m.phase }

// Run marches from the zero field at x=0 to x_max and returns the full
// history of Nx+1 snapshots. Any failure aborts the march and no history is
// returned.
func (m *Marcher) Run(ctx context.Context) (*History, error) {
	if m.phase != PhaseInitializing {
		return nil, ErrAlreadyRun
	}

	n, nx := m.grid.N(), m.grid.Nx()
	hist := &History{
		X:       make([]float64, 0, nx+1),
		U:       make([]Field, 0, nx+1),
		Metrics: make(map[string]float64),
	}

	for _, mt := range m.metrics {
		mt.Reset()
	}

	u := NewField(n)
	next := NewField(n)
	rhs := NewField(n)
	uVec := mat.NewVecDense(n, u)
	rhsVec := mat.NewVecDense(n, rhs)
	forcing := m.source * m.grid.Dx()

	m.phase = PhaseMarching
	for step := 0; ; step++ {
		x := m.grid.MarchPosition(step)
		snap := u.Clone()
		hist.X = append(hist.X, x)
		hist.U = append(hist.U, snap)

		for _, mt := range m.metrics {
			mt.Observe(step, x, snap)
		}
		for _, obs := range m.observers {
			obs.OnStep(step, x, snap)
		}

		if step == nx {
			break
		}

		select {
		case <-ctx.Done():
			m.phase = PhaseDone
			return nil, &StageError{Stage: StageStep, Step: step + 1, Err: ctx.Err()}
		default:
		}

		m.system.B.MulVecTo(rhsVec, false, uVec)
		for i := range rhs {
			rhs[i] += forcing
		}

		if err := m.solver.Solve(next, rhs); err != nil {
			m.phase = PhaseDone
			return nil, &StageError{Stage: StageStep, Step: step + 1, Err: err}
		}
		if !next.IsFinite() {
			m.phase = PhaseDone
			return nil, &StageError{Stage: StageStep, Step: step + 1, Err: ErrNonFinite}
		}
		copy(u, next)
	}
	m.phase = PhaseDone

	for _, mt := range m.metrics {
		hist.Metrics[mt.Name()] = mt.Value()
	}

	return hist, nil
}
