package draft

import "errors"

var (
	// ErrDraftNotFound indicates the draft doesn't exist.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrInvalidInput indicates invalid input for draft operations.
	ErrInvalidInput = errors.New("invalid draft input")
	// ErrFinalized indicates a write to a draft that has been committed.
	ErrFinalized = errors.New("draft already finalized")
	// ErrInvalidStatus indicates an unknown plan status on finalize.
	ErrInvalidStatus = errors.New("invalid care plan status")
)
