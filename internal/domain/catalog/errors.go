package catalog

import "errors"

var (
	// ErrInvalidCatalog indicates a malformed step catalog.
	ErrInvalidCatalog = errors.New("invalid step catalog")
)
