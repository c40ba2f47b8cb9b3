package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrInvalidStep indicates a non-positive or non-finite time step.
	ErrInvalidStep = errors.New("dynamo: time step must be positive and finite")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrNotRunning indicates an operation that needs a running session.
	ErrNotRunning = errors.New("dynamo: session is not running")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// CheckStep validates a fixed integration step.
func CheckStep(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return fmt.Errorf("dt=%g: %w", dt, ErrInvalidStep)
	}
	return nil
}

// CheckState validates a state against the expected dimension.
func CheckState(x State, dim int) error {
	if len(x) != dim {
		return fmt.Errorf("got %d values, want %d: %w", len(x), dim, ErrDimensionMismatch)
	}
	if !x.IsValid() {
		return ErrInvalidState
	}
	return nil
}

// IsDivergence reports whether err is a numerical blow-up rather than a
// configuration or cancellation error.
func IsDivergence(err error) bool {
	return errors.Is(err, ErrUnstable)
}
