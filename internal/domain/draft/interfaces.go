package draft

import (
	"context"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
)

// Repository persists drafts. Get returns the most recently updated active
// draft for a key, or repository.ErrNotFound.
type Repository interface {
	Get(ctx context.Context, tenantID string, key Key) (*Draft, error)
	GetByID(ctx context.Context, tenantID, id string) (*Draft, error)
	Put(ctx context.Context, tenantID string, d *Draft) error
	ListBySubject(ctx context.Context, tenantID, subjectID string) ([]Draft, error)
}

// Committer writes a finalized plan to the normalized store and returns its
// record ID.
type Committer interface {
	Commit(ctx context.Context, tenantID string, req careplan.CommitRequest) (string, error)
}

// EventSink receives finalize events.
type EventSink interface {
	Publish(ctx context.Context, tenantID string, ev Event) error
}

// Recorder receives save and finalize measurements.
type Recorder interface {
	RecordSave(ctx context.Context, kind string, d time.Duration, err error)
	RecordFinalize(ctx context.Context, err error)
}

type nopRecorder struct{}

func (nopRecorder) RecordSave(context.Context, string, time.Duration, error) {}
func (nopRecorder) RecordFinalize(context.Context, error)                    {}
