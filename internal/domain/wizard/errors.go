package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates an operation the current state does not allow.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrFirstStep indicates previous was called on the first active step.
	ErrFirstStep = errors.New("already on first step")
	// ErrLastStep indicates next was called on the last active step.
	ErrLastStep = errors.New("already on last step")
	// ErrUnknownStep indicates a step that is not active for the category.
	ErrUnknownStep = errors.New("step not active for subject category")
	// ErrNotLastStep indicates finalize away from the last active step.
	ErrNotLastStep = errors.New("finalize is only available on the last step")
	// ErrNothingToUndo indicates an empty undo history.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrConfirmationRequired indicates finalize needs an explicit override.
	ErrConfirmationRequired = errors.New("care plan is not ready; confirmation required")
	// ErrInvalidCategory indicates an unknown subject category.
	ErrInvalidCategory = errors.New("invalid subject category")
	// ErrInvalidStatus indicates an unknown finalize target status.
	ErrInvalidStatus = errors.New("invalid care plan status")
)

// LoadError reports a failed upstream read. The controller stays in
// Loading and Load may be retried.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError reports a failed draft write. In-memory state is untouched.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("%s save failed: %v", e.Op, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// FinalizeError reports a failed commit. The controller returns to Editing.
type FinalizeError struct {
	Err error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize failed: %v", e.Err)
}

func (e *FinalizeError) Unwrap() error {
	return e.Err
}
