package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeRecordFinalized ActivityType = "record_finalized"
	TypeStatusChanged   ActivityType = "status_changed"
	TypeSessionOpened   ActivityType = "session_opened"
	TypeSessionClosed   ActivityType = "session_closed"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	TenantID     string       `json:"tenant_id"`
	SubjectID    string       `json:"subject_id"`
	RecordID     *string      `json:"record_id,omitempty"`
	DraftID      *string      `json:"draft_id,omitempty"`
	SessionID    *string      `json:"session_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
