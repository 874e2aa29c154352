package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/cnmarch/internal/fvm"
)

const (
	DefaultYMin   = 0.0
	DefaultYMax   = 1.0
	DefaultN      = 200
	DefaultXMax   = 0.5
	DefaultNx     = 1000
	DefaultSource = 2.0
	DefaultTerms  = 100
)

const (
	SolverThomas = "thomas"
	SolverLU     = "lu"
)

var DefaultTargets = []float64{0, 0.01, 0.05, 0.1, 0.25, 1.0}

type Config struct {
	Grid    GridConfig  `yaml:"grid" json:"grid"`
	March   MarchConfig `yaml:"march" json:"march"`
	Source  float64     `yaml:"source" json:"source"`
	Solver  string      `yaml:"solver" json:"solver"`
	Terms   int         `yaml:"terms" json:"terms"`
	Targets []float64   `yaml:"targets" json:"targets"`
}

type GridConfig struct {
	YMin float64 `yaml:"y_min" json:"y_min"`
	YMax float64 `yaml:"y_max" json:"y_max"`
	N    int     `yaml:"n" json:"n"`
}

type MarchConfig struct {
	XMax float64 `yaml:"x_max" json:"x_max"`
	Nx   int     `yaml:"nx" json:"nx"`
}

func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			YMin: DefaultYMin,
			YMax: DefaultYMax,
			N:    DefaultN,
		},
		March: MarchConfig{
			XMax: DefaultXMax,
			Nx:   DefaultNx,
		},
		Source:  DefaultSource,
		Solver:  SolverThomas,
		Terms:   DefaultTerms,
		Targets: slices.Clone(DefaultTargets),
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	cp := *c
	cp.Targets = slices.Clone(c.Targets)
	return &cp
}

// Validate checks every field. Errors wrap fvm.ErrConfiguration.
func (c *Config) Validate() error {
	if _, err := c.BuildGrid(); err != nil {
		return err
	}
	if math.IsNaN(c.Source) || math.IsInf(c.Source, 0) {
		return fmt.Errorf("%w: source must be finite, got %g", fvm.ErrConfiguration, c.Source)
	}
	switch c.Solver {
	case SolverThomas, SolverLU:
	default:
		return fmt.Errorf("%w: unknown solver %q", fvm.ErrConfiguration, c.Solver)
	}
	if c.Terms < 0 {
		return fmt.Errorf("%w: terms must not be negative, got %d", fvm.ErrConfiguration, c.Terms)
	}
	for _, x := range c.Targets {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: target %g is not finite", fvm.ErrConfiguration, x)
		}
	}
	return nil
}

func (c *Config) BuildGrid() (fvm.Grid, error) {
	return fvm.NewGrid(c.Grid.N, c.Grid.YMin, c.Grid.YMax, c.March.Nx, c.March.XMax)
}
