package careplan

import "github.com/rpggio/careplan/internal/domain/catalog"

// Status is the lifecycle status of a committed care plan.
type Status string

const (
	StatusPendingApproval Status = "pending-approval"
	StatusActive          Status = "active"
	StatusArchived        Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusActive, StatusArchived:
		return true
	}
	return false
}

// Role is the role of the user acting on a plan.
type Role string

const (
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleCarer   Role = "carer"
)

// Actor identifies who is finalizing. It is passed explicitly.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Role   Role   `json:"role,omitempty"`
}

// DefaultStatus is the status a finalized plan gets when none is requested.
// Managers and admins approve their own plans.
func DefaultStatus(a Actor) Status {
	switch a.Role {
	case RoleManager, RoleAdmin:
		return StatusActive
	default:
		return StatusPendingApproval
	}
}

// CommitRequest asks the normalized store to write a care plan.
type CommitRequest struct {
	RecordID  string
	SubjectID string
	DraftID   string
	Data      Record
	Category  catalog.Category
	Status    Status
	Actor     Actor
}
