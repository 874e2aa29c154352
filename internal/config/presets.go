package config

import (
	"maps"
	"slices"
)

var Presets = map[string]*Config{
	"baseline": {
		Grid:    GridConfig{YMin: 0, YMax: 1, N: 200},
		March:   MarchConfig{XMax: 0.5, Nx: 1000},
		Source:  2,
		Solver:  SolverThomas,
		Terms:   100,
		Targets: []float64{0, 0.01, 0.05, 0.1, 0.25, 1.0},
	},
	"alternate": {
		Grid:    GridConfig{YMin: 0, YMax: 1, N: 200},
		March:   MarchConfig{XMax: 1.0, Nx: 200},
		Source:  2,
		Solver:  SolverThomas,
		Terms:   100,
		Targets: []float64{0, 0.25, 0.5, 1.0},
	},
	"coarse": {
		Grid:    GridConfig{YMin: 0, YMax: 1, N: 40},
		March:   MarchConfig{XMax: 0.1, Nx: 160},
		Source:  2,
		Solver:  SolverThomas,
		Terms:   100,
		Targets: []float64{0, 0.01, 0.05, 0.1},
	},
	"zero-source": {
		Grid:    GridConfig{YMin: 0, YMax: 1, N: 50},
		March:   MarchConfig{XMax: 0.5, Nx: 100},
		Source:  0,
		Solver:  SolverThomas,
		Terms:   100,
		Targets: []float64{0, 0.5},
	},
}

var presetNotes = map[string]string{
	"baseline":    "reference run, r = 20, compared up to x = 0.5",
	"alternate":   "longer march on fewer steps, r = 200",
	"coarse":      "r = 1 base level for refinement studies",
	"zero-source": "no forcing, field stays at zero",
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func DescribePreset(name string) string {
	return presetNotes[name]
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
