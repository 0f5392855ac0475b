package record

import "errors"

var (
	// ErrPlanNotFound indicates the care plan doesn't exist.
	ErrPlanNotFound = errors.New("care plan not found")
	// ErrConflict indicates the plan changed while it was being written.
	ErrConflict = errors.New("care plan modified concurrently")
	// ErrInvalidTransition indicates a status change the workflow forbids.
	ErrInvalidTransition = errors.New("invalid care plan status transition")
	// ErrNotPermitted indicates the actor's role cannot make the change.
	ErrNotPermitted = errors.New("actor not permitted to change status")
	// ErrInvalidInput indicates invalid input for care plan operations.
	ErrInvalidInput = errors.New("invalid care plan input")
)
