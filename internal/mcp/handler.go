package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/record"
	"github.com/rpggio/careplan/internal/domain/session"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/rpggio/careplan/internal/domain/wizard"
)

// Handler dispatches MCP commands.
type Handler struct {
	wizards  WizardService
	plans    PlanService
	subjects SubjectService
	drafts   DraftService
	activity ActivityService
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler.
func NewHandler(services Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{
		wizards:  services.Wizards,
		plans:    services.Plans,
		subjects: services.Subjects,
		drafts:   services.Drafts,
		activity: services.Activity,
		logger:   logger,
	}
}

// Handle dispatches MCP requests to domain services. sessionID is the
// transport session and names the wizard when a call does not.
func (h *Handler) Handle(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, tenantID, sessionID, method, params)
	if err != nil {
		h.logger.Debug("mcp call failed", "method", method, "tenant_id", tenantID, "session_id", sessionID, "error", err)
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, tenantID, sessionID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "open_wizard":
		var req OpenWizardParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}
		result, err := h.wizards.Open(ctx, tenantID, session.OpenRequest{
			SessionID: req.SessionID,
			SubjectID: req.SubjectID,
			RecordID:  req.RecordID,
			ForceNew:  req.ForceNew,
		})
		var loadErr *wizard.LoadError
		if errors.As(err, &loadErr) && result != nil {
			return OpenWizardResponse{SessionID: result.SessionID, View: result.View, LoadError: MapError(err)}, nil
		}
		if err != nil {
			return nil, err
		}
		return OpenWizardResponse{SessionID: result.SessionID, View: result.View}, nil
	case "retry_load":
		id, err := h.sessionID(params, sessionID)
		if err != nil {
			return nil, err
		}
		return h.wizards.Retry(ctx, tenantID, id)
	case "get_wizard":
		return h.withWizard(ctx, tenantID, sessionID, params, nil)
	case "close_wizard":
		id, err := h.sessionID(params, sessionID)
		if err != nil {
			return nil, err
		}
		if err := h.wizards.Close(ctx, tenantID, id); err != nil {
			return nil, err
		}
		return OKResponse{OK: true}, nil
	case "list_wizards":
		var req ListWizardsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.wizards.ListActive(ctx, tenantID, req.SubjectID)
	case "set_category":
		var req SetCategoryParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.withWizard(ctx, tenantID, pick(req.SessionID, sessionID), nil, func(c *wizard.Controller) error {
			return c.SetCategory(req.Category)
		})
	case "update_section":
		var req UpdateSectionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if req.Section == "" || len(req.Data) == 0 {
			return nil, fmt.Errorf("%w: section and data are required", ErrInvalidParams)
		}
		return h.withWizard(ctx, tenantID, pick(req.SessionID, sessionID), nil, func(c *wizard.Controller) error {
			return c.UpdateSection(req.Section, req.Data)
		})
	case "undo":
		return h.withWizard(ctx, tenantID, sessionID, params, func(c *wizard.Controller) error {
			return c.Undo(ctx)
		})
	case "save_draft":
		return h.withWizard(ctx, tenantID, sessionID, params, func(c *wizard.Controller) error {
			return c.Flush(ctx)
		})
	case "refresh":
		return h.withWizard(ctx, tenantID, sessionID, params, func(c *wizard.Controller) error {
			return c.Reload(ctx)
		})
	case "dismiss_error":
		return h.withWizard(ctx, tenantID, sessionID, params, func(c *wizard.Controller) error {
			c.DismissError()
			return nil
		})
	case "next_step":
		return h.withWizard(ctx, tenantID, sessionID, params, func(c *wizard.Controller) error {
			return c.Next(ctx)
		})
	case "previous_step":
		return h.withWizard(ctx, tenantID, sessionID, params, func(c *wizard.Controller) error {
			return c.Previous(ctx)
		})
	case "jump_to_step":
		var req JumpToStepParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.withWizard(ctx, tenantID, pick(req.SessionID, sessionID), nil, func(c *wizard.Controller) error {
			return c.JumpTo(ctx, req.StepID)
		})
	case "check_readiness":
		id, err := h.sessionID(params, sessionID)
		if err != nil {
			return nil, err
		}
		ctrl, err := h.wizards.Get(ctx, tenantID, id)
		if err != nil {
			return nil, err
		}
		return ctrl.Readiness(), nil
	case "finalize":
		var req FinalizeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		id := pick(req.SessionID, sessionID)
		if id == "" {
			return nil, ErrSessionRequired
		}
		result, err := h.wizards.Finalize(ctx, tenantID, id, wizard.FinalizeParams{
			Override: req.Override,
			Status:   req.Status,
			Actor:    careplan.Actor{UserID: req.UserID, Role: req.Role},
		})
		if errors.Is(err, wizard.ErrConfirmationRequired) && result != nil {
			apiErr := MapError(err)
			apiErr.Details = result.Readiness
			return nil, apiErr
		}
		if err != nil {
			return nil, err
		}
		return FinalizeResponse{RecordID: result.RecordID, Status: result.Status, Readiness: result.Readiness}, nil
	case "list_care_plans":
		var req ListCarePlansParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.plans.List(ctx, tenantID, record.ListOptions{
			SubjectID: req.SubjectID,
			Statuses:  req.Statuses,
			Limit:     req.Limit,
			Offset:    req.Offset,
		})
	case "get_care_plan":
		var req GetByIDParams
		if err := decodeRequiredID(params, &req); err != nil {
			return nil, err
		}
		plan, err := h.plans.Get(ctx, tenantID, req.ID)
		if err != nil {
			return nil, err
		}
		assignments, err := h.plans.GetAssignments(ctx, tenantID, plan.ID)
		if err != nil {
			return nil, err
		}
		return CarePlanResponse{
			ID:          plan.ID,
			SubjectID:   plan.SubjectID,
			Status:      plan.Status,
			Category:    plan.Category,
			Version:     plan.Version,
			Data:        plan.Data,
			Assignments: assignments,
			UpdatedAt:   plan.UpdatedAt,
		}, nil
	case "list_care_plan_versions":
		var req GetByIDParams
		if err := decodeRequiredID(params, &req); err != nil {
			return nil, err
		}
		return h.plans.ListVersions(ctx, tenantID, req.ID)
	case "transition_care_plan":
		var req TransitionCarePlanParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.plans.Transition(ctx, tenantID, record.TransitionRequest{
			ID:       req.ID,
			ToStatus: req.ToStatus,
			Actor:    careplan.Actor{UserID: req.UserID, Role: req.Role},
		})
	case "set_external_count":
		var req SetExternalCountParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.plans.SetExternalCount(ctx, tenantID, req.ID, req.Kind, req.Count); err != nil {
			return nil, err
		}
		return OKResponse{OK: true}, nil
	case "list_drafts":
		var req ListDraftsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		drafts, err := h.drafts.ListDrafts(ctx, tenantID, req.SubjectID)
		if err != nil {
			return nil, err
		}
		resp := make([]DraftSummaryResponse, 0, len(drafts))
		for _, d := range drafts {
			resp = append(resp, DraftSummaryResponse{
				ID:                d.ID,
				RecordID:          d.RecordID,
				Category:          d.Category,
				LastStepCompleted: d.LastStepCompleted,
				Completion:        d.Completion,
				Status:            string(d.Status),
				UpdatedAt:         d.UpdatedAt,
			})
		}
		return resp, nil
	case "create_subject":
		var req CreateSubjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.subjects.Create(ctx, tenantID, subject.CreateRequest{
			ID:            req.ID,
			Category:      req.Category,
			FullName:      req.FullName,
			PreferredName: req.PreferredName,
			DateOfBirth:   req.DateOfBirth,
			Address:       req.Address,
		})
	case "get_subject":
		var req GetByIDParams
		if err := decodeRequiredID(params, &req); err != nil {
			return nil, err
		}
		return h.subjects.Get(ctx, tenantID, req.ID)
	case "list_subjects":
		var req ListSubjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.subjects.List(ctx, tenantID, subject.ListOptions{
			Category: req.Category,
			Limit:    req.Limit,
			Offset:   req.Offset,
		})
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		opts := activity.ListActivityOptions{
			SubjectID:    req.SubjectID,
			ActivityType: req.Type,
			Limit:        req.Limit,
		}
		if req.RecordID != "" {
			opts.RecordID = &req.RecordID
		}
		if req.SessionID != "" {
			opts.SessionID = &req.SessionID
		}
		entries, err := h.activity.GetRecentActivity(ctx, tenantID, opts)
		if err != nil {
			return nil, err
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				SubjectID: entry.SubjectID,
				SessionID: stringValue(entry.SessionID),
				RecordID:  entry.RecordID,
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
}

// withWizard runs fn against the named wizard and returns its view. A nil
// fn only reads the view. When params is non-nil the session is read from it.
func (h *Handler) withWizard(ctx context.Context, tenantID, sessionID string, params json.RawMessage, fn func(*wizard.Controller) error) (any, error) {
	id := sessionID
	if params != nil {
		var err error
		if id, err = h.sessionID(params, sessionID); err != nil {
			return nil, err
		}
	}
	if id == "" {
		return nil, ErrSessionRequired
	}
	ctrl, err := h.wizards.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(ctrl); err != nil {
			return nil, err
		}
	}
	return ctrl.View(), nil
}

func (h *Handler) sessionID(params json.RawMessage, fallback string) (string, error) {
	var req SessionParams
	if err := decodeParams(params, &req); err != nil {
		return "", err
	}
	id := pick(req.SessionID, fallback)
	if id == "" {
		return "", ErrSessionRequired
	}
	return id, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func decodeRequiredID(params json.RawMessage, out *GetByIDParams) error {
	if err := decodeParams(params, out); err != nil {
		return err
	}
	if out.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidParams)
	}
	return nil
}

func pick(explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return fallback
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
