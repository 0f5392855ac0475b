package activity

import (
	"context"

	"github.com/rpggio/careplan/internal/domain/draft"
)

// Repository provides persistence operations for activity entries.
type Repository interface {
	Log(ctx context.Context, tenantID string, entry *ActivityEntry) error
	List(ctx context.Context, tenantID string, opts ListActivityOptions) ([]ActivityEntry, error)
}

// Publisher forwards draft events to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, tenantID string, ev draft.Event) error
}
