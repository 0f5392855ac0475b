package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/rpggio/careplan/internal/repository"
)

// SubjectRepository implements subject.Repository.
type SubjectRepository struct {
	db *DB
}

// NewSubjectRepository creates a new SubjectRepository
func NewSubjectRepository(db *DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

var subjectColumns = []any{
	"id", "tenant_id", "category", "full_name", "preferred_name",
	"date_of_birth", "address", "created_at",
}

// Create inserts a subject.
func (r *SubjectRepository) Create(ctx context.Context, tenantID string, subj *subject.Subject) error {
	ins := r.db.q.Insert("subjects").Rows(goqu.Record{
		"id":             subj.ID,
		"tenant_id":      tenantID,
		"category":       string(subj.Category),
		"full_name":      subj.FullName,
		"preferred_name": subj.PreferredName,
		"date_of_birth":  subj.DateOfBirth,
		"address":        subj.Address,
		"created_at":     subj.CreatedAt,
	}).Prepared(true)
	if _, err := r.db.exec(ctx, ins); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create subject: %w", err)
	}
	subj.TenantID = tenantID
	return nil
}

// Get retrieves a subject by ID
func (r *SubjectRepository) Get(ctx context.Context, tenantID, id string) (*subject.Subject, error) {
	row, err := r.db.queryRow(ctx, r.db.q.From("subjects").Select(subjectColumns...).
		Where(goqu.Ex{"id": id, "tenant_id": tenantID}))
	if err != nil {
		return nil, err
	}
	subj, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return subj, nil
}

// List returns subjects ordered by name.
func (r *SubjectRepository) List(ctx context.Context, tenantID string, opts subject.ListOptions) ([]subject.Subject, error) {
	ds := r.db.q.From("subjects").Select(subjectColumns...).
		Where(goqu.Ex{"tenant_id": tenantID}).
		Order(goqu.I("full_name").Asc(), goqu.I("id").Asc())
	if opts.Category != "" {
		ds = ds.Where(goqu.Ex{"category": string(opts.Category)})
	}

	rows, err := r.db.query(ctx, page(ds, opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []subject.Subject
	for rows.Next() {
		subj, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, *subj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subjects: %w", err)
	}
	return subjects, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubject(s scanner) (*subject.Subject, error) {
	var subj subject.Subject
	err := s.Scan(
		&subj.ID,
		&subj.TenantID,
		&subj.Category,
		&subj.FullName,
		&subj.PreferredName,
		&subj.DateOfBirth,
		&subj.Address,
		&subj.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &subj, nil
}
