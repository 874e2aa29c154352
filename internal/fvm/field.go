package fvm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Field holds the cell-averaged solution at one marching position.
type Field []float64

// NewField returns the zero field of n cells.
func NewField(n int) Field {
	return make(Field, n)
}

func (f Field) Clone() Field {
	c := make(Field, len(f))
	copy(c, f)
	return c
}

// IsFinite reports whether every cell holds a finite value.
func (f Field) IsFinite() bool {
	for _, v := range f {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Norm returns the Euclidean norm.
func (f Field) Norm() float64 {
	if len(f) == 0 {
		return 0
	}
	return floats.Norm(f, 2)
}

// Distance returns the Euclidean distance to other. It panics on a length
// mismatch.
func (f Field) Distance(other Field) float64 {
	return floats.Distance(f, other, 2)
}

func (f Field) Sub(other Field) Field {
	return floats.SubTo(make(Field, len(f)), f, other)
}
