package session

import (
	"context"
	"time"

	"github.com/rpggio/careplan/internal/domain/activity"
)

// Repository provides persistence for wizard sessions.
type Repository interface {
	Create(ctx context.Context, tenantID string, sess *WizardSession) error
	Get(ctx context.Context, tenantID, id string) (*WizardSession, error)
	Touch(ctx context.Context, tenantID, id string, at time.Time) error
	Close(ctx context.Context, tenantID, id string) error
	ListActive(ctx context.Context, tenantID, subjectID string) ([]WizardSession, error)
}

// ActivityRepository logs session activities.
type ActivityRepository interface {
	Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// Gauge tracks the number of open wizards.
type Gauge interface {
	SessionOpened(ctx context.Context)
	SessionClosed(ctx context.Context)
}

type nopGauge struct{}

func (nopGauge) SessionOpened(context.Context) {}
func (nopGauge) SessionClosed(context.Context) {}
