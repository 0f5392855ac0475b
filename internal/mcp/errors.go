package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/domain/record"
	"github.com/rpggio/careplan/internal/domain/session"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/rpggio/careplan/internal/domain/wizard"
)

var (
	// ErrMethodNotFound indicates a tool name the handler does not know.
	ErrMethodNotFound = errors.New("method not found")
	// ErrInvalidParams indicates arguments that do not decode or are missing.
	ErrInvalidParams = errors.New("invalid params")
	// ErrSessionRequired indicates a wizard call without a session ID.
	ErrSessionRequired = errors.New("wizard session id required")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes. It returns nil for errors
// with no client-facing code.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var loadErr *wizard.LoadError
	var saveErr *wizard.SaveError
	var finalizeErr *wizard.FinalizeError
	switch {
	case errors.Is(err, ErrMethodNotFound):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: err.Error(), RecoveryHint: "List tools for valid names"}
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check the tool input schema"}
	case errors.Is(err, ErrSessionRequired):
		return &APIError{Code: "SESSION_REQUIRED", Message: err.Error(), RecoveryHint: "Pass session_id or the Mcp-Session-Id header"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "wizard session not found", RecoveryHint: "Call open_wizard"}
	case errors.As(err, &loadErr):
		return &APIError{Code: "LOAD_FAILED", Message: err.Error(), RecoveryHint: "Call retry_load"}
	case errors.As(err, &saveErr):
		return &APIError{Code: "SAVE_FAILED", Message: err.Error(), RecoveryHint: "Edits are kept; call save_draft to retry"}
	case errors.Is(err, wizard.ErrConfirmationRequired):
		return &APIError{Code: "CONFIRMATION_REQUIRED", Message: err.Error(), RecoveryHint: "Complete the unmet items or finalize with override=true"}
	case errors.Is(err, wizard.ErrNotLastStep):
		return &APIError{Code: "NOT_LAST_STEP", Message: err.Error(), RecoveryHint: "Navigate to the last step first"}
	case errors.Is(err, wizard.ErrFirstStep), errors.Is(err, wizard.ErrLastStep), errors.Is(err, wizard.ErrUnknownStep):
		return &APIError{Code: "INVALID_STEP", Message: err.Error(), RecoveryHint: "Use the steps listed by get_wizard"}
	case errors.Is(err, wizard.ErrNothingToUndo):
		return &APIError{Code: "NOTHING_TO_UNDO", Message: err.Error()}
	case errors.Is(err, wizard.ErrInvalidState):
		return &APIError{Code: "INVALID_STATE", Message: err.Error(), RecoveryHint: "Call get_wizard to see the current state"}
	case errors.Is(err, wizard.ErrInvalidCategory):
		return &APIError{Code: "INVALID_CATEGORY", Message: err.Error(), RecoveryHint: "Use adult, older-adult or child"}
	case errors.Is(err, careplan.ErrUnknownSection), errors.Is(err, careplan.ErrInvalidSection):
		return &APIError{Code: "INVALID_SECTION", Message: err.Error(), RecoveryHint: "Check the section key and its shape"}
	case errors.Is(err, record.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "care plan modified concurrently", RecoveryHint: "Reopen the wizard and finalize again"}
	case errors.As(err, &finalizeErr):
		return &APIError{Code: "FINALIZE_FAILED", Message: err.Error(), RecoveryHint: "The draft is kept; retry finalize"}
	case errors.Is(err, record.ErrPlanNotFound):
		return &APIError{Code: "PLAN_NOT_FOUND", Message: "care plan not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, record.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: err.Error(), RecoveryHint: "Check valid transitions"}
	case errors.Is(err, record.ErrNotPermitted):
		return &APIError{Code: "NOT_PERMITTED", Message: err.Error(), RecoveryHint: "Ask a manager or admin"}
	case errors.Is(err, subject.ErrSubjectNotFound):
		return &APIError{Code: "SUBJECT_NOT_FOUND", Message: "subject not found", RecoveryHint: "Check ID spelling"}
	case errors.Is(err, draft.ErrDraftNotFound):
		return &APIError{Code: "DRAFT_NOT_FOUND", Message: "draft not found"}
	case errors.Is(err, draft.ErrFinalized):
		return &APIError{Code: "DRAFT_FINALIZED", Message: err.Error(), RecoveryHint: "Open a new wizard"}
	case errors.Is(err, record.ErrInvalidInput), errors.Is(err, subject.ErrInvalidInput),
		errors.Is(err, session.ErrInvalidInput), errors.Is(err, draft.ErrInvalidInput),
		errors.Is(err, draft.ErrInvalidStatus), errors.Is(err, wizard.ErrInvalidStatus):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
