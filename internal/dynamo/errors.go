package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state with NaN or Inf fields.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a parameter name that does not exist.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrUnknownDriveMode indicates a drive mode missing from the mode table.
	ErrUnknownDriveMode = errors.New("dynamo: unknown drive mode")

	// ErrTransition indicates a lifecycle command not allowed in the current state.
	ErrTransition = errors.New("dynamo: invalid lifecycle transition")
)

// ParamError reports a rejected parameter value together with its declared range.
type ParamError struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s=%g outside [%g, %g]", ErrParameterBounds, e.Name, e.Value, e.Min, e.Max)
}

func (e *ParamError) Unwrap() error {
	return ErrParameterBounds
}

// TransitionError wraps a rejected lifecycle command with the state it was issued in.
type TransitionError struct {
	Op   string
	From Lifecycle
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", ErrTransition, e.Op, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrTransition
}
