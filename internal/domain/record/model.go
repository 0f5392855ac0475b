package record

import (
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
)

// CarePlan is a committed, versioned care plan.
type CarePlan struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenant_id"`
	SubjectID string           `json:"subject_id"`
	Status    careplan.Status  `json:"status"`
	Category  catalog.Category `json:"category"`
	Data      careplan.Record  `json:"data"`
	Version   int64            `json:"version"`
	DraftID   string           `json:"draft_id,omitempty"`
	CreatedBy string           `json:"created_by,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PlanVersion is the audit row written on every commit and transition.
type PlanVersion struct {
	PlanID    string          `json:"plan_id"`
	Version   int64           `json:"version"`
	Status    careplan.Status `json:"status"`
	Data      careplan.Record `json:"data"`
	DraftID   string          `json:"draft_id,omitempty"`
	CreatedBy string          `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Summary is a row of the care plan list.
type Summary struct {
	ID         string           `json:"id"`
	SubjectID  string           `json:"subject_id"`
	Status     careplan.Status  `json:"status"`
	Category   catalog.Category `json:"category"`
	Version    int64            `json:"version"`
	Completion int              `json:"completion"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
