package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/fvm"
	"github.com/san-kum/cnmarch/internal/logging"
)

// Result is one completed march together with the setup that produced it.
type Result struct {
	Config  *config.Config
	Grid    fvm.Grid
	History *fvm.History
	Solver  string
	Elapsed time.Duration
}

type Experiment struct {
	cfg     *config.Config
	grid    fvm.Grid
	system  *fvm.System
	marcher *fvm.Marcher
	logger  *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) *Experiment {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Experiment{
		cfg:    cfg.Clone(),
		logger: logger,
	}
}

// Setup validates the configuration, assembles the operators and factorizes
// A with the configured solver.
func (e *Experiment) Setup(registry *Registry, metrics []fvm.Metric) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	grid, err := e.cfg.BuildGrid()
	if err != nil {
		return err
	}
	e.grid = grid
	e.logger.Debug("grid built", "n", grid.N(), "nx", grid.Nx(), "dy", grid.Dy(), "dx", grid.Dx(), "r", grid.Ratio())

	sys, err := fvm.AssembleGrid(grid)
	if err != nil {
		return err
	}
	e.system = sys
	e.logger.Debug("operators assembled", "size", sys.Size())

	factor, err := registry.GetSolver(e.cfg.Solver)
	if err != nil {
		return err
	}
	solver, err := factor(sys.A)
	if err != nil {
		return err
	}
	e.logger.Debug("operator factorized", "solver", e.cfg.Solver)

	marcher, err := fvm.NewMarcher(grid, sys, solver, e.cfg.Source)
	if err != nil {
		return err
	}
	for _, m := range metrics {
		marcher.AddMetric(m)
	}
	e.marcher = marcher
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.marcher == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	start := time.Now()
	hist, err := e.marcher.Run(ctx)
	if err != nil {
		e.logger.Error("march failed", "error", err)
		return nil, err
	}
	elapsed := time.Since(start)

	e.logger.Info("march complete",
		"n", e.grid.N(),
		"nx", e.grid.Nx(),
		"x_max", e.grid.XMax(),
		"solver", e.cfg.Solver,
		"elapsed", elapsed,
	)

	return &Result{
		Config:  e.cfg.Clone(),
		Grid:    e.grid,
		History: hist,
		Solver:  e.cfg.Solver,
		Elapsed: elapsed,
	}, nil
}

func (e *Experiment) Grid() fvm.Grid { return e.grid }

// GetMarcher returns the underlying marcher for adding observers
func (e *Experiment) GetMarcher() *fvm.Marcher {
	return e.marcher
}

// Execute sets up and runs cfg with the default registry and metrics.
func Execute(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	registry := NewRegistry()
	exp := New(cfg, logger)

	grid, err := cfg.BuildGrid()
	if err != nil {
		return nil, err
	}
	if err := exp.Setup(registry, registry.DefaultMetrics(grid, cfg.Source)); err != nil {
		return nil, err
	}
	return exp.Run(ctx)
}
