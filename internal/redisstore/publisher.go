package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rpggio/careplan/internal/domain/draft"
)

// EventPublisher publishes draft events on a per-tenant channel.
type EventPublisher struct {
	c *Client
}

// NewEventPublisher creates a new EventPublisher
func NewEventPublisher(c *Client) *EventPublisher {
	return &EventPublisher{c: c}
}

// Channel returns the channel events for a tenant are published on.
func (p *EventPublisher) Channel(tenantID string) string {
	return p.c.key(tenantID, "events")
}

// Publish sends ev as JSON.
func (p *EventPublisher) Publish(ctx context.Context, tenantID string, ev draft.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.c.rdb.Publish(ctx, p.Channel(tenantID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
