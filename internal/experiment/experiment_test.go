package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/fvm"
)

type stepCounter struct{ n int }

func (s *stepCounter) OnStep(int, float64, fvm.Field) { s.n++ }

func TestExecute_Coarse(t *testing.T) {
	cfg := config.GetPreset("coarse")
	require.NotNil(t, cfg)

	res, err := Execute(context.Background(), cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 161, res.History.Len())
	assert.Equal(t, 40, res.Grid.N())
	assert.Equal(t, config.SolverThomas, res.Solver)
	assert.InDelta(t, 1.0, res.Grid.Ratio(), 1e-9)
	for _, name := range []string{"max_residual", "final_residual", "peak", "stability", "steady_distance"} {
		assert.Contains(t, res.History.Metrics, name)
	}
	assert.Equal(t, 1.0, res.History.Metrics["stability"])
	assert.Greater(t, res.History.Metrics["peak"], 0.0)
}

func TestExecute_SolversAgree(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Grid.N = 30
	cfg.March.Nx = 60
	cfg.March.XMax = 0.2

	thomas, err := Execute(context.Background(), cfg, nil)
	require.NoError(t, err)

	cfg.Solver = config.SolverLU
	lu, err := Execute(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SolverLU, lu.Solver)

	_, ut := thomas.History.Final()
	_, ul := lu.History.Final()
	assert.Less(t, ut.Distance(ul), 1e-12)
}

func TestExperiment_Setup(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Solver = "gauss-seidel"

	exp := New(cfg, nil)
	err := exp.Setup(NewRegistry(), nil)
	require.ErrorIs(t, err, fvm.ErrConfiguration)

	_, err = New(config.DefaultConfig(), nil).Run(context.Background())
	require.Error(t, err)
}

func TestExperiment_Observer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Grid.N = 8
	cfg.March.Nx = 12

	exp := New(cfg, nil)
	require.NoError(t, exp.Setup(NewRegistry(), nil))

	counter := &stepCounter{}
	exp.GetMarcher().AddObserver(counter)

	res, err := exp.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 13, counter.n)
	assert.Empty(t, res.History.Metrics)
	assert.Equal(t, 8, exp.Grid().N())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"lu", "thomas"}, r.ListSolvers())

	_, err := r.GetSolver("cg")
	require.ErrorIs(t, err, fvm.ErrConfiguration)

	sys, err := fvm.Assemble(4, 1)
	require.NoError(t, err)
	factor, err := r.GetSolver("thomas")
	require.NoError(t, err)
	solver, err := factor(sys.A)
	require.NoError(t, err)

	dst := make([]float64, 4)
	require.NoError(t, solver.Solve(dst, []float64{3, 1, 1, 3}))
	for _, v := range dst {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}
