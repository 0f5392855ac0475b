package record

import (
	"fmt"
	"strings"

	"github.com/rpggio/careplan/internal/domain/careplan"
)

// ValidateCommit validates fields required to commit a plan.
func ValidateCommit(req careplan.CommitRequest) error {
	if strings.TrimSpace(req.SubjectID) == "" {
		return fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if !req.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}
	if !req.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidInput, req.Category)
	}
	return nil
}

// ValidateTransition validates a requested status change for an actor.
// Only managers and admins approve a pending plan.
func ValidateTransition(from, to careplan.Status, actor careplan.Actor) error {
	valid := false
	switch from {
	case careplan.StatusPendingApproval:
		valid = to == careplan.StatusActive || to == careplan.StatusArchived
	case careplan.StatusActive:
		valid = to == careplan.StatusArchived
	case careplan.StatusArchived:
		valid = to == careplan.StatusActive
	}
	if !valid {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}

	if to == careplan.StatusActive && careplan.DefaultStatus(actor) != careplan.StatusActive {
		return ErrNotPermitted
	}
	return nil
}
