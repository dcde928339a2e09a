package sequence

import (
	"errors"
	"fmt"
)

// Sentinel errors for plan execution.
var (
	// ErrAborted indicates a step failed and abort-on-error is
	// configured. Use errors.As with *StepError for the failing step.
	ErrAborted = errors.New("sequence aborted")

	// ErrCanceled indicates the user declined an interactive
	// confirmation prompt.
	ErrCanceled = errors.New("sequence canceled")
)

// StepError reports a failed plan step.
type StepError struct {
	Plan  string
	Index int // zero-based position in the plan
	Step  string
	Err   error

	// Aborted is set when this failure stopped the plan.
	Aborted bool
}

func (e *StepError) Error() string {
	return fmt.Sprintf("plan %q step %d (%s): %v", e.Plan, e.Index+1, e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrAborted) match a step failure that
// aborted the plan.
func (e *StepError) Is(target error) bool {
	return target == ErrAborted && e.Aborted
}
