package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/rpggio/careplan/internal/domain/activity"
)

// ActivityRepository implements activity.Repository.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log inserts a new activity entry
func (r *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ins := r.db.q.Insert("activity_log").Rows(goqu.Record{
		"tenant_id":     tenantID,
		"subject_id":    entry.SubjectID,
		"record_id":     entry.RecordID,
		"draft_id":      entry.DraftID,
		"session_id":    entry.SessionID,
		"activity_type": string(entry.ActivityType),
		"summary":       entry.Summary,
		"details":       entry.Details,
		"created_at":    createdAt,
	})

	if r.db.driver == DriverPostgres {
		query, args, err := ins.Returning("id").Prepared(true).ToSQL()
		if err != nil {
			return fmt.Errorf("failed to build query: %w", err)
		}
		if err := r.db.QueryRowContext(ctx, query, args...).Scan(&entry.ID); err != nil {
			return fmt.Errorf("failed to log activity: %w", err)
		}
	} else {
		result, err := r.db.exec(ctx, ins.Prepared(true))
		if err != nil {
			return fmt.Errorf("failed to log activity: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			entry.ID = id
		}
	}

	entry.TenantID = tenantID
	entry.CreatedAt = createdAt
	return nil
}

// List returns activity entries matching the given filters, newest first.
func (r *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	ds := r.db.q.From("activity_log").
		Select("id", "tenant_id", "subject_id", "record_id", "draft_id", "session_id",
			"activity_type", "summary", "details", "created_at").
		Where(goqu.Ex{"tenant_id": tenantID}).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc())

	if opts.SubjectID != "" {
		ds = ds.Where(goqu.Ex{"subject_id": opts.SubjectID})
	}
	if opts.RecordID != nil {
		ds = ds.Where(goqu.Ex{"record_id": *opts.RecordID})
	}
	if opts.SessionID != nil {
		ds = ds.Where(goqu.Ex{"session_id": *opts.SessionID})
	}
	if opts.ActivityType != nil {
		ds = ds.Where(goqu.Ex{"activity_type": string(*opts.ActivityType)})
	}

	rows, err := r.db.query(ctx, page(ds, opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var entry activity.ActivityEntry
		var recordID, draftID, sessionID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.SubjectID,
			&recordID,
			&draftID,
			&sessionID,
			&entry.ActivityType,
			&entry.Summary,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entry.RecordID = nullString(recordID)
		entry.DraftID = nullString(draftID)
		entry.SessionID = nullString(sessionID)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
