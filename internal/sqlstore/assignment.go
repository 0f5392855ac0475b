package sqlstore

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/repository"
)

// AssignmentRepository implements record.AssignmentRepository.
type AssignmentRepository struct {
	db *DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Get returns a plan's staff assignments in their stored order.
func (r *AssignmentRepository) Get(ctx context.Context, tenantID, planID string) ([]careplan.StaffAssignment, error) {
	rows, err := r.db.query(ctx, r.db.q.From("staff_assignments").
		Select("staff_id", "is_primary").
		Where(goqu.Ex{"tenant_id": tenantID, "plan_id": planID}).
		Order(goqu.I("position").Asc()))
	if err != nil {
		return nil, fmt.Errorf("failed to get staff assignments: %w", err)
	}
	defer rows.Close()

	var assignments []careplan.StaffAssignment
	for rows.Next() {
		var a careplan.StaffAssignment
		if err := rows.Scan(&a.StaffID, &a.IsPrimary); err != nil {
			return nil, fmt.Errorf("failed to scan staff assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating staff assignments: %w", err)
	}
	return assignments, nil
}

// Replace swaps a plan's assignments in one transaction.
func (r *AssignmentRepository) Replace(ctx context.Context, tenantID, planID string, assignments []careplan.StaffAssignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query, args, err := r.db.q.Delete("staff_assignments").
		Where(goqu.Ex{"tenant_id": tenantID, "plan_id": planID}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear staff assignments: %w", err)
	}

	if len(assignments) > 0 {
		rows := make([]any, 0, len(assignments))
		for i, a := range assignments {
			rows = append(rows, goqu.Record{
				"plan_id":    planID,
				"tenant_id":  tenantID,
				"staff_id":   a.StaffID,
				"is_primary": a.IsPrimary,
				"position":   i,
			})
		}
		query, args, err := r.db.q.Insert("staff_assignments").Rows(rows...).Prepared(true).ToSQL()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isForeignKeyViolation(err) {
				return repository.ErrForeignKeyViolation
			}
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate staff id", repository.ErrInvalidInput)
			}
			return fmt.Errorf("failed to insert staff assignments: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staff assignments: %w", err)
	}
	return nil
}
