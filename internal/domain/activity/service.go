package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/careplan/internal/domain/draft"
)

// Service handles activity log operations. It also serves as the draft
// store's event sink.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger
}

// NewService creates a new activity service. publisher may be nil.
func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, tenantID string, entry *ActivityEntry) error {
	if entry == nil {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, tenantID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// Log satisfies the repository-shaped logging interfaces of other services.
func (s *Service) Log(ctx context.Context, tenantID string, entry *ActivityEntry) error {
	return s.LogActivity(ctx, tenantID, entry)
}

// GetRecentActivity lists activity entries with filtering.
func (s *Service) GetRecentActivity(ctx context.Context, tenantID string, opts ListActivityOptions) ([]ActivityEntry, error) {
	return s.repo.List(ctx, tenantID, opts)
}

// Publish records a draft event and forwards it to the publisher. The log
// row is written even when forwarding fails.
func (s *Service) Publish(ctx context.Context, tenantID string, ev draft.Event) error {
	details, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}

	entry := &ActivityEntry{
		SubjectID:    ev.SubjectID,
		RecordID:     stringPtr(ev.RecordID),
		DraftID:      stringPtr(ev.DraftID),
		ActivityType: ActivityType(ev.Type),
		Summary:      fmt.Sprintf("care plan %s finalized as %s", ev.RecordID, ev.Status),
		Details:      string(details),
		CreatedAt:    ev.OccurredAt,
	}
	if err := s.LogActivity(ctx, tenantID, entry); err != nil {
		return err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, tenantID, ev); err != nil {
			return fmt.Errorf("forwarding event: %w", err)
		}
	}
	return nil
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
