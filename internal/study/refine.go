// Package study runs families of marches: grid refinement at a fixed
// diffusion ratio and scripted plans loaded from YAML.
package study

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/cnmarch/internal/analytic"
	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/experiment"
	"github.com/san-kum/cnmarch/internal/fvm"
	"github.com/san-kum/cnmarch/internal/logging"
	"github.com/san-kum/cnmarch/internal/report"
)

// Level is one grid of a refinement study.
type Level struct {
	N      int     `json:"n"`
	Nx     int     `json:"nx"`
	Dy     float64 `json:"dy"`
	Dx     float64 `json:"dx"`
	R      float64 `json:"r"`
	X      float64 `json:"x"`
	L2     float64 `json:"l2"`
	GridL2 float64 `json:"grid_l2"`
	// Ratio is GridL2 of the previous level over this one; zero on the first.
	Ratio float64 `json:"ratio"`
	// Order is log2(Ratio), the observed convergence order in dy.
	Order float64 `json:"order"`
}

// Refine marches levels grids, halving dy and quartering dx each time so r
// stays fixed, and compares each against the analytical solution at the
// snapshot nearest x. x <= 0 selects the end of the march. Levels run
// concurrently.
func Refine(ctx context.Context, base *config.Config, levels int, x float64) ([]Level, error) {
	if levels < 1 {
		return nil, fmt.Errorf("%w: need at least one level, got %d", fvm.ErrConfiguration, levels)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if x <= 0 {
		x = base.March.XMax
	}

	logger := logging.FromContext(ctx)
	out := make([]Level, levels)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < levels; i++ {
		cfg := base.Clone()
		cfg.Grid.N = base.Grid.N << i
		cfg.March.Nx = base.March.Nx << (2 * i)

		g.Go(func() error {
			res, err := experiment.Execute(gctx, cfg, logger.With("level", i))
			if err != nil {
				return fmt.Errorf("level %d: %w", i, err)
			}
			r, err := report.New(res.Grid, res.History, analytic.Series{Source: cfg.Source, Terms: cfg.Terms})
			if err != nil {
				return fmt.Errorf("level %d: %w", i, err)
			}
			comps, err := r.Compare([]float64{x})
			if err != nil {
				return fmt.Errorf("level %d: %w", i, err)
			}

			out[i] = Level{
				N:      res.Grid.N(),
				Nx:     res.Grid.Nx(),
				Dy:     res.Grid.Dy(),
				Dx:     res.Grid.Dx(),
				R:      res.Grid.Ratio(),
				X:      comps[0].X,
				L2:     comps[0].L2,
				GridL2: comps[0].GridL2,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := 1; i < levels; i++ {
		if out[i].GridL2 > 0 {
			out[i].Ratio = out[i-1].GridL2 / out[i].GridL2
			out[i].Order = math.Log2(out[i].Ratio)
		}
	}
	return out, nil
}
