package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/domain/session"
	"github.com/rpggio/careplan/internal/repository"
)

// SessionRepository implements session.Repository.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

var sessionColumns = []any{
	"id", "tenant_id", "subject_id", "record_id", "status",
	"created_at", "last_activity", "closed_at",
}

// Create writes a session row. Reusing the ID of a closed session reopens
// the row.
func (r *SessionRepository) Create(ctx context.Context, tenantID string, sess *session.WizardSession) error {
	fields := goqu.Record{
		"subject_id":    sess.SubjectID,
		"record_id":     sess.RecordID,
		"status":        string(sess.Status),
		"created_at":    sess.CreatedAt,
		"last_activity": sess.LastActivity,
		"closed_at":     sess.ClosedAt,
	}
	result, err := r.db.exec(ctx, r.db.q.Update("wizard_sessions").Set(fields).
		Where(goqu.Ex{"id": sess.ID, "tenant_id": tenantID}).Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to reopen session: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		sess.TenantID = tenantID
		return nil
	}

	fields["id"] = sess.ID
	fields["tenant_id"] = tenantID
	if _, err := r.db.exec(ctx, r.db.q.Insert("wizard_sessions").Rows(fields).Prepared(true)); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	sess.TenantID = tenantID
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, tenantID, id string) (*session.WizardSession, error) {
	row, err := r.db.queryRow(ctx, r.db.q.From("wizard_sessions").Select(sessionColumns...).
		Where(goqu.Ex{"id": id, "tenant_id": tenantID}))
	if err != nil {
		return nil, err
	}
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

// Touch records activity on a session.
func (r *SessionRepository) Touch(ctx context.Context, tenantID, id string, at time.Time) error {
	return r.update(ctx, tenantID, id, goqu.Record{"last_activity": at}, "touch")
}

// Close marks a session as closed
func (r *SessionRepository) Close(ctx context.Context, tenantID, id string) error {
	now := time.Now()
	return r.update(ctx, tenantID, id, goqu.Record{
		"status":        string(session.StatusClosed),
		"closed_at":     now,
		"last_activity": now,
	}, "close")
}

func (r *SessionRepository) update(ctx context.Context, tenantID, id string, fields goqu.Record, op string) error {
	result, err := r.db.exec(ctx, r.db.q.Update("wizard_sessions").Set(fields).
		Where(goqu.Ex{"id": id, "tenant_id": tenantID}).Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to %s session: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListActive returns active sessions, most recently used first. An empty
// subjectID lists the whole tenant.
func (r *SessionRepository) ListActive(ctx context.Context, tenantID, subjectID string) ([]session.WizardSession, error) {
	ds := r.db.q.From("wizard_sessions").Select(sessionColumns...).
		Where(goqu.Ex{"tenant_id": tenantID, "status": string(session.StatusActive)}).
		Order(goqu.I("last_activity").Desc())
	if subjectID != "" {
		ds = ds.Where(goqu.Ex{"subject_id": subjectID})
	}

	rows, err := r.db.query(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []session.WizardSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*session.WizardSession, error) {
	var sess session.WizardSession
	var closedAt sql.NullTime
	err := s.Scan(
		&sess.ID,
		&sess.TenantID,
		&sess.SubjectID,
		&sess.RecordID,
		&sess.Status,
		&sess.CreatedAt,
		&sess.LastActivity,
		&closedAt,
	)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		sess.ClosedAt = &closedAt.Time
	}
	return &sess, nil
}
