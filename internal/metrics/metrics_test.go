package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/cnmarch/internal/fvm"
)

func TestStability(t *testing.T) {
	m := NewStability(1.0)
	if m.Value() != 1.0 {
		t.Errorf("empty stability = %v, want 1", m.Value())
	}

	m.Observe(0, 0, fvm.Field{0.1, 0.2})
	m.Observe(1, 0.1, fvm.Field{0.5, 2.0})
	m.Observe(2, 0.2, fvm.Field{-0.9, 0.3})
	m.Observe(3, 0.3, fvm.Field{-3, 3})

	if got := m.Value(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("stability = %v, want 0.5", got)
	}

	m.Reset()
	if m.Value() != 1.0 {
		t.Error("expected full stability after reset")
	}
}

func TestResidual(t *testing.T) {
	snaps := []fvm.Field{
		{0, 0},
		{3, 4},
		{3, 5},
	}

	maxR := NewMaxResidual()
	finalR := NewFinalResidual()
	for n, u := range snaps {
		maxR.Observe(n, float64(n), u)
		finalR.Observe(n, float64(n), u)
	}

	if got := maxR.Value(); math.Abs(got-5) > 1e-12 {
		t.Errorf("max residual = %v, want 5", got)
	}
	if got := finalR.Value(); math.Abs(got-1) > 1e-12 {
		t.Errorf("final residual = %v, want 1", got)
	}
	if maxR.Name() != "max_residual" || finalR.Name() != "final_residual" {
		t.Errorf("unexpected names %q %q", maxR.Name(), finalR.Name())
	}

	maxR.Reset()
	maxR.Observe(0, 0, fvm.Field{1, 1})
	if maxR.Value() != 0 {
		t.Error("a single snapshot has no residual")
	}
}

func TestPeak(t *testing.T) {
	m := NewPeak()
	m.Observe(0, 0, fvm.Field{-2, -1})
	if m.Value() != -1 {
		t.Errorf("peak = %v, want -1", m.Value())
	}
	m.Observe(1, 0.1, fvm.Field{0.25, 0.125})
	if m.Value() != 0.25 {
		t.Errorf("peak = %v, want 0.25", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero peak after reset")
	}
}

func TestSteadyDistance(t *testing.T) {
	centers := []float64{0.25, 0.75}
	m := NewSteadyDistance(centers, 0.5, 2)

	steady := fvm.Field{0.5 * 0.25 * 0.75, 0.5 * 0.75 * 0.25}
	m.Observe(0, 0, steady)
	if got := m.Value(); got > 1e-15 {
		t.Errorf("distance at steady state = %v", got)
	}

	m.Observe(1, 0.1, fvm.Field{0, 0})
	want := math.Sqrt(0.5) * steady.Norm()
	if got := m.Value(); math.Abs(got-want) > 1e-12 {
		t.Errorf("distance = %v, want %v", got, want)
	}

	scaled := NewSteadyDistance(centers, 0.5, 4)
	scaled.Observe(0, 0, fvm.Field{2 * steady[0], 2 * steady[1]})
	if got := scaled.Value(); got > 1e-15 {
		t.Errorf("scaled distance = %v", got)
	}
}
