package wizard

import (
	"context"

	"github.com/rpggio/careplan/internal/domain/careplan"
)

// ProfileSource looks up the subject a plan is written for.
type ProfileSource interface {
	GetProfile(ctx context.Context, tenantID, subjectID string) (*careplan.SubjectProfile, error)
}

// RecordSource reads committed plans and the stores that sit beside them.
type RecordSource interface {
	GetData(ctx context.Context, tenantID, recordID string) (*careplan.Record, error)
	GetAssignments(ctx context.Context, tenantID, recordID string) ([]careplan.StaffAssignment, error)
	GetExternalCount(ctx context.Context, tenantID, recordID string, kind careplan.CounterKind) (int, error)
}
