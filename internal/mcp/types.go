package mcp

import (
	"encoding/json"
	"time"

	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/wizard"
)

// SessionParams names a wizard session. An empty SessionID falls back to the
// transport session.
type SessionParams struct {
	SessionID string `json:"session_id,omitempty"`
}

type OpenWizardParams struct {
	SessionID string `json:"session_id,omitempty"`
	SubjectID string `json:"subject_id"`
	RecordID  string `json:"record_id,omitempty"`
	ForceNew  bool   `json:"force_new,omitempty"`
}

type SetCategoryParams struct {
	SessionID string           `json:"session_id,omitempty"`
	Category  catalog.Category `json:"category"`
}

type UpdateSectionParams struct {
	SessionID string             `json:"session_id,omitempty"`
	Section   catalog.SectionKey `json:"section"`
	Data      json.RawMessage    `json:"data"`
}

type JumpToStepParams struct {
	SessionID string `json:"session_id,omitempty"`
	StepID    int    `json:"step_id"`
}

type FinalizeParams struct {
	SessionID string          `json:"session_id,omitempty"`
	Override  bool            `json:"override,omitempty"`
	Status    careplan.Status `json:"status,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Role      careplan.Role   `json:"role,omitempty"`
}

type ListWizardsParams struct {
	SubjectID string `json:"subject_id,omitempty"`
}

type CreateSubjectParams struct {
	ID            string           `json:"id,omitempty"`
	Category      catalog.Category `json:"category"`
	FullName      string           `json:"full_name"`
	PreferredName string           `json:"preferred_name,omitempty"`
	DateOfBirth   string           `json:"date_of_birth,omitempty"`
	Address       string           `json:"address,omitempty"`
}

type GetByIDParams struct {
	ID string `json:"id"`
}

type ListSubjectsParams struct {
	Category catalog.Category `json:"category,omitempty"`
	Limit    int              `json:"limit,omitempty"`
	Offset   int              `json:"offset,omitempty"`
}

type ListCarePlansParams struct {
	SubjectID string            `json:"subject_id,omitempty"`
	Statuses  []careplan.Status `json:"statuses,omitempty"`
	Limit     int               `json:"limit,omitempty"`
	Offset    int               `json:"offset,omitempty"`
}

type TransitionCarePlanParams struct {
	ID       string          `json:"id"`
	ToStatus careplan.Status `json:"to_status"`
	UserID   string          `json:"user_id,omitempty"`
	Role     careplan.Role   `json:"role,omitempty"`
}

type SetExternalCountParams struct {
	ID    string               `json:"id"`
	Kind  careplan.CounterKind `json:"kind"`
	Count int                  `json:"count"`
}

type ListDraftsParams struct {
	SubjectID string `json:"subject_id"`
}

type GetRecentActivityParams struct {
	SubjectID string                 `json:"subject_id,omitempty"`
	RecordID  string                 `json:"record_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Type      *activity.ActivityType `json:"type,omitempty"`
	Limit     int                    `json:"limit,omitempty"`
}

// Responses

type OpenWizardResponse struct {
	SessionID string      `json:"session_id"`
	View      wizard.View `json:"view"`
	LoadError *APIError   `json:"load_error,omitempty"`
}

type FinalizeResponse struct {
	RecordID  string             `json:"record_id,omitempty"`
	Status    careplan.Status    `json:"status,omitempty"`
	Readiness careplan.Readiness `json:"readiness"`
}

type CarePlanResponse struct {
	ID          string                     `json:"id"`
	SubjectID   string                     `json:"subject_id"`
	Status      careplan.Status            `json:"status"`
	Category    catalog.Category           `json:"category"`
	Version     int64                      `json:"version"`
	Data        careplan.Record            `json:"data"`
	Assignments []careplan.StaffAssignment `json:"assignments"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

type DraftSummaryResponse struct {
	ID                string           `json:"id"`
	RecordID          string           `json:"record_id,omitempty"`
	Category          catalog.Category `json:"category"`
	LastStepCompleted int              `json:"last_step_completed"`
	Completion        int              `json:"completion"`
	Status            string           `json:"status"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	SubjectID string                `json:"subject_id"`
	SessionID string                `json:"session_id,omitempty"`
	RecordID  *string               `json:"record_id,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
