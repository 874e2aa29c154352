package fvm

import (
	"errors"
	"math"
	"testing"
)

func TestNewGrid_Validation(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		yMin, yMax float64
		nx         int
		xMax       float64
		wantErr    bool
	}{
		{"baseline", 200, 0, 1, 1000, 0.5, false},
		{"minimal", 2, 0, 1, 1, 1e-3, false},
		{"one cell", 1, 0, 1, 10, 1, true},
		{"no steps", 10, 0, 1, 0, 1, true},
		{"inverted span", 10, 1, 0, 10, 1, true},
		{"empty span", 10, 0.5, 0.5, 10, 1, true},
		{"zero x_max", 10, 0, 1, 10, 0, true},
		{"negative x_max", 10, 0, 1, 10, -1, true},
		{"NaN bound", 10, math.NaN(), 1, 10, 1, true},
		{"infinite x_max", 10, 0, 1, 10, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.n, tt.yMin, tt.yMax, tt.nx, tt.xMax)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGrid() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("error %v does not wrap ErrConfiguration", err)
			}
		})
	}
}

func TestGrid_Derived(t *testing.T) {
	g, err := NewGrid(200, 0, 1, 1000, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(g.Dy()-0.005) > 1e-15 {
		t.Errorf("Dy() = %v, want 0.005", g.Dy())
	}
	if math.Abs(g.Dx()-0.0005) > 1e-15 {
		t.Errorf("Dx() = %v, want 0.0005", g.Dx())
	}
	if math.Abs(g.Ratio()-20) > 1e-9 {
		t.Errorf("Ratio() = %v, want 20", g.Ratio())
	}
	if g.MarchPosition(0) != 0 {
		t.Errorf("MarchPosition(0) = %v", g.MarchPosition(0))
	}
	if g.MarchPosition(g.Nx()) != g.XMax() {
		t.Errorf("MarchPosition(Nx) = %v, want %v", g.MarchPosition(g.Nx()), g.XMax())
	}
}

func TestGrid_CellCenters(t *testing.T) {
	g, err := NewGrid(4, -1, 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-0.75, -0.25, 0.25, 0.75}
	got := g.CellCenters()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Errorf("center[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStageError_Message(t *testing.T) {
	step := &StageError{Stage: StageStep, Step: 3, Err: ErrNonFinite}
	if got := step.Error(); got != "step 3: "+ErrNonFinite.Error() {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(step, ErrNonFinite) {
		t.Error("StageError does not unwrap")
	}

	fact := &StageError{Stage: StageFactorization, Err: ErrFactorization}
	if got := fact.Error(); got != "factorization: "+ErrFactorization.Error() {
		t.Errorf("Error() = %q", got)
	}
}
