package fvm

import (
	"errors"
	"fmt"
)

// Domain errors for assembly, factorization and marching.
var (
	// ErrConfiguration indicates grid or stencil parameters outside their valid range.
	ErrConfiguration = errors.New("fvm: invalid configuration")

	// ErrFactorization indicates a singular or ill-conditioned implicit operator.
	ErrFactorization = errors.New("fvm: factorization failed")

	// ErrNonFinite indicates NaN or Inf in a solved field.
	ErrNonFinite = errors.New("fvm: non-finite value in solved field")

	// ErrDimension indicates mismatched field and operator sizes.
	ErrDimension = errors.New("fvm: dimension mismatch between field and operator")

	// ErrAlreadyRun indicates a second Run on a Marcher.
	ErrAlreadyRun = errors.New("fvm: marcher already run")
)

// Pipeline stages reported by StageError.
const (
	StageAssembly      = "assembly"
	StageFactorization = "factorization"
	StageStep          = "step"
)

// StageError wraps an error with the pipeline stage that produced it. Step is
// the index of the field being solved for and is only meaningful for StageStep.
type StageError struct {
	Stage string
	Step  int
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == StageStep {
		return fmt.Sprintf("%s %d: %v", e.Stage, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
