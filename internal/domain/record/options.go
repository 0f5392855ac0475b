package record

import "github.com/rpggio/careplan/internal/domain/careplan"

// ListOptions provides filtering options for listing care plans.
type ListOptions struct {
	SubjectID string
	Statuses  []careplan.Status
	Limit     int
	Offset    int
}
