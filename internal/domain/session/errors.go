package session

import "errors"

var (
	// ErrSessionNotFound indicates no open wizard has the session ID.
	ErrSessionNotFound = errors.New("wizard session not found")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
)
