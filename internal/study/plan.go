package study

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cnmarch/internal/config"
	"github.com/san-kum/cnmarch/internal/experiment"
	"github.com/san-kum/cnmarch/internal/fvm"
	"github.com/san-kum/cnmarch/internal/logging"
)

// Plan is a scripted sequence of marches.
type Plan struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Cases       []Case `yaml:"cases"`
}

// Case starts from a preset, or the defaults when Preset is empty, and
// applies whichever overrides are set.
type Case struct {
	Name    string    `yaml:"name"`
	Preset  string    `yaml:"preset"`
	N       *int      `yaml:"n"`
	Nx      *int      `yaml:"nx"`
	XMax    *float64  `yaml:"x_max"`
	Source  *float64  `yaml:"source"`
	Solver  string    `yaml:"solver"`
	Terms   *int      `yaml:"terms"`
	Targets []float64 `yaml:"targets"`
}

// Config resolves the case into a validated configuration.
func (c Case) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.Preset != "" {
		cfg = config.GetPreset(c.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset: %s (available: %v)", fvm.ErrConfiguration, c.Preset, config.ListPresets())
		}
	}
	if c.N != nil {
		cfg.Grid.N = *c.N
	}
	if c.Nx != nil {
		cfg.March.Nx = *c.Nx
	}
	if c.XMax != nil {
		cfg.March.XMax = *c.XMax
	}
	if c.Source != nil {
		cfg.Source = *c.Source
	}
	if c.Solver != "" {
		cfg.Solver = c.Solver
	}
	if c.Terms != nil {
		cfg.Terms = *c.Terms
	}
	if c.Targets != nil {
		cfg.Targets = append([]float64(nil), c.Targets...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadPlan loads a plan from a YAML file. Every case must resolve.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var plan Plan
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(plan.Cases) == 0 {
		return nil, fmt.Errorf("%w: plan %q has no cases", fvm.ErrConfiguration, plan.Name)
	}
	for i, c := range plan.Cases {
		if _, err := c.Config(); err != nil {
			return nil, fmt.Errorf("case %d (%s): %w", i+1, c.Name, err)
		}
	}

	return &plan, nil
}

// Runner executes one resolved case.
type Runner func(ctx context.Context, name string, cfg *config.Config) (*experiment.Result, error)

type Outcome struct {
	Case   string
	Config *config.Config
	Result *experiment.Result
}

// RunPlan executes the cases in order and stops at the first failure,
// returning the outcomes completed so far. A nil runner uses
// experiment.Execute with the context's logger.
func RunPlan(ctx context.Context, plan *Plan, run Runner) ([]Outcome, error) {
	logger := logging.FromContext(ctx)
	if run == nil {
		run = func(ctx context.Context, name string, cfg *config.Config) (*experiment.Result, error) {
			return experiment.Execute(ctx, cfg, logger.With("case", name))
		}
	}

	outcomes := make([]Outcome, 0, len(plan.Cases))
	for i, c := range plan.Cases {
		logger.Info("running case", "index", i+1, "total", len(plan.Cases), "case", c.Name)

		cfg, err := c.Config()
		if err != nil {
			return outcomes, fmt.Errorf("case %d (%s): %w", i+1, c.Name, err)
		}

		res, err := run(ctx, c.Name, cfg)
		if err != nil {
			return outcomes, fmt.Errorf("case %d (%s): %w", i+1, c.Name, err)
		}

		outcomes = append(outcomes, Outcome{Case: c.Name, Config: cfg, Result: res})
	}

	return outcomes, nil
}
