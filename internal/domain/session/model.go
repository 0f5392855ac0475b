package session

import "time"

// SessionStatus represents the lifecycle status of a wizard session
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusClosed SessionStatus = "closed"
)

// WizardSession is the persisted record of an open wizard.
type WizardSession struct {
	ID           string        `json:"id"`
	TenantID     string        `json:"tenant_id"`
	SubjectID    string        `json:"subject_id"`
	RecordID     string        `json:"record_id,omitempty"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActivity time.Time     `json:"last_activity"`
	ClosedAt     *time.Time    `json:"closed_at,omitempty"`
}
