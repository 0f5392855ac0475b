package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/repository"
)

// DraftRepository implements draft.Repository.
type DraftRepository struct {
	db *DB
}

// NewDraftRepository creates a new DraftRepository
func NewDraftRepository(db *DB) *DraftRepository {
	return &DraftRepository{db: db}
}

var draftColumns = []any{
	"id", "tenant_id", "subject_id", "record_id", "auto_save_data",
	"last_step_completed", "category", "catalog_version", "completion",
	"status", "superseded_by", "created_at", "updated_at",
}

// Get returns the most recently updated active draft for a slot.
func (r *DraftRepository) Get(ctx context.Context, tenantID string, key draft.Key) (*draft.Draft, error) {
	row, err := r.db.queryRow(ctx, r.db.q.From("drafts").Select(draftColumns...).
		Where(goqu.Ex{
			"tenant_id":  tenantID,
			"subject_id": key.SubjectID,
			"record_id":  key.RecordID,
			"status":     string(draft.StatusActive),
		}).
		Order(goqu.I("updated_at").Desc(), goqu.I("id").Desc()).
		Limit(1))
	if err != nil {
		return nil, err
	}
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

// GetByID retrieves a draft by ID regardless of status.
func (r *DraftRepository) GetByID(ctx context.Context, tenantID, id string) (*draft.Draft, error) {
	row, err := r.db.queryRow(ctx, r.db.q.From("drafts").Select(draftColumns...).
		Where(goqu.Ex{"id": id, "tenant_id": tenantID}))
	if err != nil {
		return nil, err
	}
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

// Put writes a draft, inserting it when the ID is new.
func (r *DraftRepository) Put(ctx context.Context, tenantID string, d *draft.Draft) error {
	data, err := json.Marshal(d.AutoSaveData)
	if err != nil {
		return fmt.Errorf("failed to encode draft data: %w", err)
	}

	fields := goqu.Record{
		"auto_save_data":      string(data),
		"last_step_completed": d.LastStepCompleted,
		"category":            string(d.Category),
		"catalog_version":     d.CatalogVersion,
		"completion":          d.Completion,
		"status":              string(d.Status),
		"superseded_by":       d.SupersededBy,
		"updated_at":          d.UpdatedAt,
	}
	result, err := r.db.exec(ctx, r.db.q.Update("drafts").Set(fields).
		Where(goqu.Ex{"id": d.ID, "tenant_id": tenantID}).Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		d.TenantID = tenantID
		return nil
	}

	fields["id"] = d.ID
	fields["tenant_id"] = tenantID
	fields["subject_id"] = d.SubjectID
	fields["record_id"] = d.RecordID
	fields["created_at"] = d.CreatedAt
	if _, err := r.db.exec(ctx, r.db.q.Insert("drafts").Rows(fields).Prepared(true)); err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create draft: %w", err)
	}
	d.TenantID = tenantID
	return nil
}

// ListBySubject returns every draft of a subject, newest first.
func (r *DraftRepository) ListBySubject(ctx context.Context, tenantID, subjectID string) ([]draft.Draft, error) {
	rows, err := r.db.query(ctx, r.db.q.From("drafts").Select(draftColumns...).
		Where(goqu.Ex{"tenant_id": tenantID, "subject_id": subjectID}).
		Order(goqu.I("updated_at").Desc(), goqu.I("id").Desc()))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []draft.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drafts: %w", err)
	}
	return drafts, nil
}

func scanDraft(s scanner) (*draft.Draft, error) {
	var d draft.Draft
	var data []byte
	err := s.Scan(
		&d.ID,
		&d.TenantID,
		&d.SubjectID,
		&d.RecordID,
		&data,
		&d.LastStepCompleted,
		&d.Category,
		&d.CatalogVersion,
		&d.Completion,
		&d.Status,
		&d.SupersededBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &d.AutoSaveData); err != nil {
		return nil, fmt.Errorf("failed to decode draft data: %w", err)
	}
	return &d, nil
}
