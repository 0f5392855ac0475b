// Package repository holds the storage errors shared by every backend.
package repository

import "errors"

var (
	// ErrNotFound is returned when no row or key matches.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a stored version no longer matches the
	// one the caller loaded.
	ErrConflict = errors.New("conflict: stored version changed")

	// ErrForeignKeyViolation is returned when a plan, draft or assignment
	// references a subject or plan that does not exist.
	ErrForeignKeyViolation = errors.New("foreign key violation")

	ErrInvalidInput = errors.New("invalid input")
)
