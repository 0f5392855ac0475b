package careplan

import "errors"

var (
	// ErrUnknownSection indicates a section key the record does not have.
	ErrUnknownSection = errors.New("unknown section")
	// ErrInvalidSection indicates section data that does not decode.
	ErrInvalidSection = errors.New("invalid section data")
)
