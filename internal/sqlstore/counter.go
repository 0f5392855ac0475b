package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/repository"
)

// CounterRepository implements record.CounterRepository.
type CounterRepository struct {
	db *DB
}

// NewCounterRepository creates a new CounterRepository
func NewCounterRepository(db *DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Get returns the stored count, zero when none was recorded.
func (r *CounterRepository) Get(ctx context.Context, tenantID, planID string, kind careplan.CounterKind) (int, error) {
	row, err := r.db.queryRow(ctx, r.db.q.From("external_counts").Select("count").
		Where(goqu.Ex{"tenant_id": tenantID, "plan_id": planID, "kind": string(kind)}))
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	return n, nil
}

// Set stores a count, replacing any previous value.
func (r *CounterRepository) Set(ctx context.Context, tenantID, planID string, kind careplan.CounterKind, n int) error {
	where := goqu.Ex{"tenant_id": tenantID, "plan_id": planID, "kind": string(kind)}
	result, err := r.db.exec(ctx, r.db.q.Update("external_counts").
		Set(goqu.Record{"count": n}).Where(where).Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to update count: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	ins := r.db.q.Insert("external_counts").Rows(goqu.Record{
		"tenant_id": tenantID,
		"plan_id":   planID,
		"kind":      string(kind),
		"count":     n,
	}).Prepared(true)
	if _, err := r.db.exec(ctx, ins); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to insert count: %w", err)
	}
	return nil
}
