package draft

import (
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
)

// Status is the lifecycle state of a draft row.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuperseded Status = "superseded"
)

// Key identifies the draft slot for one subject and, when editing, one
// committed plan. An empty RecordID is the slot for a new plan.
type Key struct {
	SubjectID string
	RecordID  string
}

func (k Key) String() string {
	if k.RecordID == "" {
		return k.SubjectID + "/new"
	}
	return k.SubjectID + "/" + k.RecordID
}

// Draft is an autosaved, uncommitted care plan.
type Draft struct {
	ID                string           `json:"id"`
	TenantID          string           `json:"tenant_id"`
	SubjectID         string           `json:"subject_id"`
	RecordID          string           `json:"record_id,omitempty"`
	AutoSaveData      careplan.Record  `json:"auto_save_data"`
	LastStepCompleted int              `json:"last_step_completed"`
	Category          catalog.Category `json:"category"`
	CatalogVersion    int              `json:"catalog_version,omitempty"`
	Completion        int              `json:"completion"`
	Status            Status           `json:"status"`
	SupersededBy      string           `json:"superseded_by,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Key returns the slot the draft belongs to.
func (d *Draft) Key() Key {
	return Key{SubjectID: d.SubjectID, RecordID: d.RecordID}
}

// EventType names an event emitted by the store.
type EventType string

const (
	EventRecordFinalized EventType = "record_finalized"
)

// Event is published after a plan has been committed.
type Event struct {
	Type       EventType       `json:"type"`
	DraftID    string          `json:"draft_id"`
	SubjectID  string          `json:"subject_id"`
	RecordID   string          `json:"record_id"`
	Status     careplan.Status `json:"status"`
	Actor      careplan.Actor  `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// LoadRequest asks for the latest draft of a slot.
type LoadRequest struct {
	SubjectID string
	RecordID  string
	ForceNew  bool
}

// SaveInput is the state written on each save.
type SaveInput struct {
	Record   careplan.Record
	StepID   int
	Category catalog.Category
	Context  careplan.CompletionContext
}

// FinalizeInput is the final save plus the commit parameters. An empty
// Status falls back to careplan.DefaultStatus for the actor.
type FinalizeInput struct {
	SaveInput
	Status careplan.Status
	Actor  careplan.Actor
}
