package subject

import (
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
)

// Subject is the person care plans are written for.
type Subject struct {
	ID            string           `json:"id"`
	TenantID      string           `json:"tenant_id"`
	Category      catalog.Category `json:"category"`
	FullName      string           `json:"full_name"`
	PreferredName string           `json:"preferred_name,omitempty"`
	DateOfBirth   string           `json:"date_of_birth,omitempty"`
	Address       string           `json:"address,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Profile returns the read-only view the wizard consumes.
func (s *Subject) Profile() careplan.SubjectProfile {
	return careplan.SubjectProfile{
		ID:            s.ID,
		Category:      s.Category,
		FullName:      s.FullName,
		PreferredName: s.PreferredName,
		DateOfBirth:   s.DateOfBirth,
		Address:       s.Address,
	}
}

// ListOptions provides filtering options for listing subjects.
type ListOptions struct {
	Category catalog.Category
	Limit    int
	Offset   int
}
