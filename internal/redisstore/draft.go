package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/repository"
)

// DraftRepository implements draft.Repository on Redis. Each draft is a
// JSON string; a slot key points at the active draft of a subject/plan pair
// and a set per subject lists every draft ID.
type DraftRepository struct {
	c *Client
}

// NewDraftRepository creates a new DraftRepository
func NewDraftRepository(c *Client) *DraftRepository {
	return &DraftRepository{c: c}
}

func (r *DraftRepository) draftKey(tenantID, id string) string {
	return r.c.key(tenantID, "draft", id)
}

func (r *DraftRepository) slotKey(tenantID string, key draft.Key) string {
	return r.c.key(tenantID, "slot", key.String())
}

func (r *DraftRepository) subjectKey(tenantID, subjectID string) string {
	return r.c.key(tenantID, "subject", subjectID, "drafts")
}

// Get returns the active draft of a slot. When the slot was released by a
// finalize, the newest remaining active draft for the key is returned.
func (r *DraftRepository) Get(ctx context.Context, tenantID string, key draft.Key) (*draft.Draft, error) {
	id, err := r.c.rdb.Get(ctx, r.slotKey(tenantID, key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get draft slot: %w", err)
	}
	if err == nil {
		d, err := r.GetByID(ctx, tenantID, id)
		if err == nil && d.Status == draft.StatusActive {
			return d, nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	drafts, err := r.ListBySubject(ctx, tenantID, key.SubjectID)
	if err != nil {
		return nil, err
	}
	d, ok := latestActive(drafts, key)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &d, nil
}

// latestActive picks the first active draft for key from drafts sorted
// newest first.
func latestActive(drafts []draft.Draft, key draft.Key) (draft.Draft, bool) {
	for _, d := range drafts {
		if d.Status == draft.StatusActive && d.Key() == key {
			return d, true
		}
	}
	return draft.Draft{}, false
}

// GetByID retrieves a draft by ID regardless of status.
func (r *DraftRepository) GetByID(ctx context.Context, tenantID, id string) (*draft.Draft, error) {
	raw, err := r.c.rdb.Get(ctx, r.draftKey(tenantID, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	var d draft.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft: %w", err)
	}
	return &d, nil
}

// Put writes a draft. An active draft takes over its slot; a superseded
// draft releases the slot if it still holds it.
func (r *DraftRepository) Put(ctx context.Context, tenantID string, d *draft.Draft) error {
	d.TenantID = tenantID
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}

	draftKey := r.draftKey(tenantID, d.ID)
	slotKey := r.slotKey(tenantID, d.Key())
	subjectKey := r.subjectKey(tenantID, d.SubjectID)

	if d.Status == draft.StatusActive {
		_, err = r.c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, draftKey, raw, 0)
			pipe.Set(ctx, slotKey, d.ID, 0)
			pipe.SAdd(ctx, subjectKey, d.ID)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to put draft: %w", err)
		}
		return nil
	}

	err = r.c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		holder, err := tx.Get(ctx, slotKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, draftKey, raw, 0)
			pipe.SAdd(ctx, subjectKey, d.ID)
			if holder == d.ID {
				pipe.Del(ctx, slotKey)
			}
			return nil
		})
		return err
	}, slotKey)
	if errors.Is(err, redis.TxFailedErr) {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to put draft: %w", err)
	}
	return nil
}

// ListBySubject returns every draft of a subject, newest first.
func (r *DraftRepository) ListBySubject(ctx context.Context, tenantID, subjectID string) ([]draft.Draft, error) {
	ids, err := r.c.rdb.SMembers(ctx, r.subjectKey(tenantID, subjectID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.draftKey(tenantID, id)
	}
	values, err := r.c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}

	drafts := make([]draft.Draft, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var d draft.Draft
		if err := json.Unmarshal([]byte(s), &d); err != nil {
			return nil, fmt.Errorf("failed to decode draft: %w", err)
		}
		drafts = append(drafts, d)
	}
	sort.Slice(drafts, func(i, j int) bool {
		if drafts[i].UpdatedAt.Equal(drafts[j].UpdatedAt) {
			return drafts[i].ID > drafts[j].ID
		}
		return drafts[i].UpdatedAt.After(drafts[j].UpdatedAt)
	})
	return drafts, nil
}
