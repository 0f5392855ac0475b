package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/domain/record"
	"github.com/rpggio/careplan/internal/repository"
)

// PlanRepository implements record.PlanRepository.
type PlanRepository struct {
	db *DB
}

// NewPlanRepository creates a new PlanRepository
func NewPlanRepository(db *DB) *PlanRepository {
	return &PlanRepository{db: db}
}

var planColumns = []any{
	"id", "tenant_id", "subject_id", "status", "category", "data",
	"version", "draft_id", "created_by", "created_at", "updated_at",
}

// Create inserts a care plan.
func (r *PlanRepository) Create(ctx context.Context, tenantID string, plan *record.CarePlan) error {
	data, err := json.Marshal(plan.Data)
	if err != nil {
		return fmt.Errorf("failed to encode care plan: %w", err)
	}

	ins := r.db.q.Insert("care_plans").Rows(goqu.Record{
		"id":         plan.ID,
		"tenant_id":  tenantID,
		"subject_id": plan.SubjectID,
		"status":     string(plan.Status),
		"category":   string(plan.Category),
		"data":       string(data),
		"version":    plan.Version,
		"draft_id":   plan.DraftID,
		"created_by": plan.CreatedBy,
		"created_at": plan.CreatedAt,
		"updated_at": plan.UpdatedAt,
	}).Prepared(true)
	if _, err := r.db.exec(ctx, ins); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create care plan: %w", err)
	}
	plan.TenantID = tenantID
	return nil
}

// Get retrieves a care plan by ID
func (r *PlanRepository) Get(ctx context.Context, tenantID, id string) (*record.CarePlan, error) {
	row, err := r.db.queryRow(ctx, r.db.q.From("care_plans").Select(planColumns...).
		Where(goqu.Ex{"id": id, "tenant_id": tenantID}))
	if err != nil {
		return nil, err
	}
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get care plan: %w", err)
	}
	return plan, nil
}

// Update writes a care plan if its stored version is still expectedVersion.
func (r *PlanRepository) Update(ctx context.Context, tenantID string, plan *record.CarePlan, expectedVersion int64) error {
	data, err := json.Marshal(plan.Data)
	if err != nil {
		return fmt.Errorf("failed to encode care plan: %w", err)
	}

	upd := r.db.q.Update("care_plans").Set(goqu.Record{
		"status":     string(plan.Status),
		"category":   string(plan.Category),
		"data":       string(data),
		"version":    plan.Version,
		"draft_id":   plan.DraftID,
		"updated_at": plan.UpdatedAt,
	}).Where(goqu.Ex{"id": plan.ID, "tenant_id": tenantID, "version": expectedVersion}).Prepared(true)

	result, err := r.db.exec(ctx, upd)
	if err != nil {
		return fmt.Errorf("failed to update care plan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Tell a missing plan apart from a lost race.
	if _, err := r.Get(ctx, tenantID, plan.ID); err != nil {
		return err
	}
	return repository.ErrConflict
}

// List returns care plans, most recently updated first.
func (r *PlanRepository) List(ctx context.Context, tenantID string, opts record.ListOptions) ([]record.CarePlan, error) {
	ds := r.db.q.From("care_plans").Select(planColumns...).
		Where(goqu.Ex{"tenant_id": tenantID}).
		Order(goqu.I("updated_at").Desc(), goqu.I("id").Asc())
	if opts.SubjectID != "" {
		ds = ds.Where(goqu.Ex{"subject_id": opts.SubjectID})
	}
	if len(opts.Statuses) > 0 {
		statuses := make([]string, len(opts.Statuses))
		for i, s := range opts.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}

	rows, err := r.db.query(ctx, page(ds, opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list care plans: %w", err)
	}
	defer rows.Close()

	var plans []record.CarePlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan care plan: %w", err)
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating care plans: %w", err)
	}
	return plans, nil
}

// AddVersion appends a row to a plan's history.
func (r *PlanRepository) AddVersion(ctx context.Context, tenantID string, v *record.PlanVersion) error {
	data, err := json.Marshal(v.Data)
	if err != nil {
		return fmt.Errorf("failed to encode care plan version: %w", err)
	}

	ins := r.db.q.Insert("care_plan_versions").Rows(goqu.Record{
		"plan_id":    v.PlanID,
		"tenant_id":  tenantID,
		"version":    v.Version,
		"status":     string(v.Status),
		"data":       string(data),
		"draft_id":   v.DraftID,
		"created_by": v.CreatedBy,
		"created_at": v.CreatedAt,
	}).Prepared(true)
	if _, err := r.db.exec(ctx, ins); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to add care plan version: %w", err)
	}
	return nil
}

// ListVersions returns a plan's history, oldest first.
func (r *PlanRepository) ListVersions(ctx context.Context, tenantID, planID string) ([]record.PlanVersion, error) {
	rows, err := r.db.query(ctx, r.db.q.From("care_plan_versions").
		Select("plan_id", "version", "status", "data", "draft_id", "created_by", "created_at").
		Where(goqu.Ex{"tenant_id": tenantID, "plan_id": planID}).
		Order(goqu.I("version").Asc()))
	if err != nil {
		return nil, fmt.Errorf("failed to list care plan versions: %w", err)
	}
	defer rows.Close()

	var versions []record.PlanVersion
	for rows.Next() {
		var v record.PlanVersion
		var data []byte
		if err := rows.Scan(&v.PlanID, &v.Version, &v.Status, &data, &v.DraftID, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan care plan version: %w", err)
		}
		if err := json.Unmarshal(data, &v.Data); err != nil {
			return nil, fmt.Errorf("failed to decode care plan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating care plan versions: %w", err)
	}
	return versions, nil
}

func scanPlan(s scanner) (*record.CarePlan, error) {
	var plan record.CarePlan
	var data []byte
	err := s.Scan(
		&plan.ID,
		&plan.TenantID,
		&plan.SubjectID,
		&plan.Status,
		&plan.Category,
		&data,
		&plan.Version,
		&plan.DraftID,
		&plan.CreatedBy,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &plan.Data); err != nil {
		return nil, fmt.Errorf("failed to decode care plan: %w", err)
	}
	return &plan, nil
}
