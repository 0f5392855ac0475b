package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/repository"
)

// Service handles committed care plans.
type Service struct {
	plans       PlanRepository
	assignments AssignmentRepository
	counters    CounterRepository
	activities  ActivityRepository
	catalog     *catalog.Catalog
	logger      *slog.Logger
}

// NewService creates a new care plan service.
func NewService(
	plans PlanRepository,
	assignments AssignmentRepository,
	counters CounterRepository,
	activities ActivityRepository,
	cat *catalog.Catalog,
	logger *slog.Logger,
) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		plans:       plans,
		assignments: assignments,
		counters:    counters,
		activities:  activities,
		catalog:     cat,
		logger:      logger,
	}
}

// TransitionRequest describes a status change request.
type TransitionRequest struct {
	ID       string
	ToStatus careplan.Status
	Actor    careplan.Actor
}

// Commit writes a finalized plan. An empty RecordID creates a plan;
// otherwise the plan is updated and its version incremented. Staff
// assignments are replaced from the plan's care team.
func (s *Service) Commit(ctx context.Context, tenantID string, req careplan.CommitRequest) (*CarePlan, error) {
	if err := ValidateCommit(req); err != nil {
		return nil, err
	}

	now := time.Now()
	var plan CarePlan
	if req.RecordID == "" {
		plan = CarePlan{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			SubjectID: req.SubjectID,
			Status:    req.Status,
			Category:  req.Category,
			Data:      req.Data.Clone(),
			Version:   1,
			DraftID:   req.DraftID,
			CreatedBy: req.Actor.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.plans.Create(ctx, tenantID, &plan); err != nil {
			return nil, fmt.Errorf("creating care plan: %w", err)
		}
	} else {
		current, err := s.plans.Get(ctx, tenantID, req.RecordID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPlanNotFound
			}
			return nil, fmt.Errorf("loading care plan: %w", err)
		}
		if current.SubjectID != req.SubjectID {
			return nil, fmt.Errorf("%w: plan %s belongs to another subject", ErrInvalidInput, current.ID)
		}

		plan = *current
		plan.Status = req.Status
		plan.Category = req.Category
		plan.Data = req.Data.Clone()
		plan.DraftID = req.DraftID
		plan.Version = current.Version + 1
		plan.UpdatedAt = now
		if err := s.plans.Update(ctx, tenantID, &plan, current.Version); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrConflict
			}
			return nil, fmt.Errorf("updating care plan: %w", err)
		}
	}

	if err := s.plans.AddVersion(ctx, tenantID, &PlanVersion{
		PlanID:    plan.ID,
		Version:   plan.Version,
		Status:    plan.Status,
		Data:      plan.Data,
		DraftID:   plan.DraftID,
		CreatedBy: req.Actor.UserID,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("adding care plan version: %w", err)
	}

	if err := s.assignments.Replace(ctx, tenantID, plan.ID, careplan.Assignments(plan.Data.StaffIDs())); err != nil {
		return nil, fmt.Errorf("replacing staff assignments: %w", err)
	}

	return &plan, nil
}

// Transition changes the status of a committed plan.
func (s *Service) Transition(ctx context.Context, tenantID string, req TransitionRequest) (*CarePlan, error) {
	if req.ID == "" {
		return nil, ErrInvalidInput
	}

	current, err := s.Get(ctx, tenantID, req.ID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(current.Status, req.ToStatus, req.Actor); err != nil {
		return nil, err
	}

	now := time.Now()
	updated := *current
	updated.Status = req.ToStatus
	updated.Version = current.Version + 1
	updated.UpdatedAt = now

	if err := s.plans.Update(ctx, tenantID, &updated, current.Version); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("transitioning care plan: %w", err)
	}
	if err := s.plans.AddVersion(ctx, tenantID, &PlanVersion{
		PlanID:    updated.ID,
		Version:   updated.Version,
		Status:    updated.Status,
		Data:      updated.Data,
		DraftID:   updated.DraftID,
		CreatedBy: req.Actor.UserID,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("adding care plan version: %w", err)
	}

	if s.activities != nil {
		err := s.activities.Log(ctx, tenantID, &activity.ActivityEntry{
			SubjectID:    updated.SubjectID,
			RecordID:     &updated.ID,
			ActivityType: activity.TypeStatusChanged,
			Summary:      fmt.Sprintf("care plan %s %s -> %s", updated.ID, current.Status, updated.Status),
		})
		if err != nil {
			s.logger.Warn("status change not logged", "tenant_id", tenantID, "plan_id", updated.ID, "error", err)
		}
	}

	return &updated, nil
}

// Get returns a care plan by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*CarePlan, error) {
	plan, err := s.plans.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("getting care plan: %w", err)
	}
	return plan, nil
}

// GetData returns the committed record of a plan.
func (s *Service) GetData(ctx context.Context, tenantID, id string) (*careplan.Record, error) {
	plan, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return &plan.Data, nil
}

// GetAssignments returns the normalized staff assignments of a plan.
func (s *Service) GetAssignments(ctx context.Context, tenantID, id string) ([]careplan.StaffAssignment, error) {
	assignments, err := s.assignments.Get(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("getting staff assignments: %w", err)
	}
	return assignments, nil
}

// ReplaceAssignments overwrites the staff assignments of a plan. The first
// ID becomes primary.
func (s *Service) ReplaceAssignments(ctx context.Context, tenantID, id string, staffIDs []string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	if err := s.assignments.Replace(ctx, tenantID, id, careplan.Assignments(staffIDs)); err != nil {
		return fmt.Errorf("replacing staff assignments: %w", err)
	}
	return nil
}

// GetExternalCount returns the count of sub-records of kind for a plan.
func (s *Service) GetExternalCount(ctx context.Context, tenantID, id string, kind careplan.CounterKind) (int, error) {
	n, err := s.counters.Get(ctx, tenantID, id, kind)
	if err != nil {
		return 0, fmt.Errorf("getting %s count: %w", kind, err)
	}
	return n, nil
}

// SetExternalCount records the count of sub-records of kind for a plan.
func (s *Service) SetExternalCount(ctx context.Context, tenantID, id string, kind careplan.CounterKind, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative count", ErrInvalidInput)
	}
	if err := s.counters.Set(ctx, tenantID, id, kind, n); err != nil {
		return fmt.Errorf("setting %s count: %w", kind, err)
	}
	return nil
}

// List returns plan summaries. Completion is scored the same way the
// wizard scores it, including external counts.
func (s *Service) List(ctx context.Context, tenantID string, opts ListOptions) ([]Summary, error) {
	plans, err := s.plans.List(ctx, tenantID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing care plans: %w", err)
	}

	out := make([]Summary, 0, len(plans))
	for _, plan := range plans {
		medication, err := s.GetExternalCount(ctx, tenantID, plan.ID, careplan.CounterMedication)
		if err != nil {
			return nil, err
		}
		counts := careplan.CompletionContext{}.WithCount(careplan.CounterMedication, medication)
		completion := careplan.Score(s.catalog, plan.Data, plan.Category, counts)
		out = append(out, Summary{
			ID:         plan.ID,
			SubjectID:  plan.SubjectID,
			Status:     plan.Status,
			Category:   plan.Category,
			Version:    plan.Version,
			Completion: completion.Percentage,
			UpdatedAt:  plan.UpdatedAt,
		})
	}
	return out, nil
}

// ListVersions returns the commit history of a plan, oldest first.
func (s *Service) ListVersions(ctx context.Context, tenantID, id string) ([]PlanVersion, error) {
	versions, err := s.plans.ListVersions(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("listing care plan versions: %w", err)
	}
	return versions, nil
}

// Committer adapts the service to the draft store's commit contract.
type Committer struct {
	Plans *Service
}

func (c Committer) Commit(ctx context.Context, tenantID string, req careplan.CommitRequest) (string, error) {
	plan, err := c.Plans.Commit(ctx, tenantID, req)
	if err != nil {
		return "", err
	}
	return plan.ID, nil
}
