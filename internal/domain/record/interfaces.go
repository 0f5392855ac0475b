package record

import (
	"context"

	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/careplan"
)

// PlanRepository provides persistence for committed care plans.
type PlanRepository interface {
	Create(ctx context.Context, tenantID string, plan *CarePlan) error
	Get(ctx context.Context, tenantID, id string) (*CarePlan, error)
	Update(ctx context.Context, tenantID string, plan *CarePlan, expectedVersion int64) error
	List(ctx context.Context, tenantID string, opts ListOptions) ([]CarePlan, error)
	AddVersion(ctx context.Context, tenantID string, v *PlanVersion) error
	ListVersions(ctx context.Context, tenantID, planID string) ([]PlanVersion, error)
}

// AssignmentRepository provides the normalized staff assignment store.
type AssignmentRepository interface {
	Get(ctx context.Context, tenantID, planID string) ([]careplan.StaffAssignment, error)
	Replace(ctx context.Context, tenantID, planID string, assignments []careplan.StaffAssignment) error
}

// CounterRepository provides counts of sub-records stored outside the plan.
// Get returns zero for unknown plans.
type CounterRepository interface {
	Get(ctx context.Context, tenantID, planID string, kind careplan.CounterKind) (int, error)
	Set(ctx context.Context, tenantID, planID string, kind careplan.CounterKind, n int) error
}

// ActivityRepository logs care plan activities.
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}
