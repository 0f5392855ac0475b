package wizard

import (
	"log/slog"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/draft"
)

// State is the controller lifecycle state.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateEditing    State = "editing"
	StateNavigating State = "navigating"
	StateFinalizing State = "finalizing"
	StateClosed     State = "closed"
)

const (
	defaultDebounce  = 500 * time.Millisecond
	defaultUndoDepth = 50
)

// Deps are the collaborators a controller reads and writes through.
type Deps struct {
	Profiles  ProfileSource
	Records   RecordSource
	Drafts    *draft.Store
	Logger    *slog.Logger
	Debounce  time.Duration
	UndoDepth int
}

// OpenParams selects what the wizard edits. An empty RecordID starts a new
// plan; ForceNew ignores any in-progress draft for it.
type OpenParams struct {
	SubjectID string
	RecordID  string
	ForceNew  bool
}

// FinalizeParams configures a finalize attempt. Override confirms a plan
// that is not ready.
type FinalizeParams struct {
	Override bool
	Status   careplan.Status
	Actor    careplan.Actor
}

// FinalizeResult reports the outcome of finalize. When confirmation is
// required only Readiness is set.
type FinalizeResult struct {
	RecordID  string             `json:"record_id,omitempty"`
	Status    careplan.Status    `json:"status,omitempty"`
	Readiness careplan.Readiness `json:"readiness"`
}

// View is a point-in-time snapshot of the controller.
type View struct {
	State      State               `json:"state"`
	SubjectID  string              `json:"subject_id"`
	RecordID   string              `json:"record_id,omitempty"`
	DraftID    string              `json:"draft_id,omitempty"`
	Category   catalog.Category    `json:"category,omitempty"`
	StepID     int                 `json:"step_id"`
	Steps      []catalog.Step      `json:"steps"`
	IsLastStep bool                `json:"is_last_step"`
	Record     careplan.Record     `json:"record"`
	Completion careplan.Completion `json:"completion"`
	Readiness  careplan.Readiness  `json:"readiness"`
	CanUndo    bool                `json:"can_undo"`
	Dirty      bool                `json:"dirty"`
	Error      string              `json:"error,omitempty"`
}
