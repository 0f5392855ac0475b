package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
)

// Handle writes one draft. Writes through handles that share a key are
// serialized.
type Handle struct {
	store    *Store
	tenantID string
	key      Key

	mu        sync.Mutex
	draft     *Draft
	last      snapshot
	finalized bool
}

type snapshot struct {
	data     []byte
	step     int
	category catalog.Category
}

func snapshotOf(rec careplan.Record, step int, category catalog.Category) snapshot {
	data, _ := json.Marshal(rec)
	return snapshot{data: data, step: step, category: category}
}

func (s snapshot) equal(o snapshot) bool {
	return s.step == o.step && s.category == o.category && bytes.Equal(s.data, o.data)
}

// Key returns the slot the handle writes to.
func (h *Handle) Key() Key {
	return h.key
}

// Draft returns a copy of the last written draft, nil before the first save.
func (h *Handle) Draft() *Draft {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draft == nil {
		return nil
	}
	d := *h.draft
	d.AutoSaveData = h.draft.AutoSaveData.Clone()
	return &d
}

// DraftID returns the draft ID, empty before the first save.
func (h *Handle) DraftID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draft == nil {
		return ""
	}
	return h.draft.ID
}

// Autosave writes the state unless it matches what was last written. It
// reports whether a write happened.
func (h *Handle) Autosave(ctx context.Context, in SaveInput) (bool, error) {
	return h.save(ctx, in, false, saveKindAuto)
}

// SaveDraft writes the state unconditionally.
func (h *Handle) SaveDraft(ctx context.Context, in SaveInput) error {
	_, err := h.save(ctx, in, true, saveKindExplicit)
	return err
}

func (h *Handle) save(ctx context.Context, in SaveInput, force bool, kind string) (bool, error) {
	unlock := h.store.locks.Lock(h.key.String())
	defer unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.saveLocked(ctx, in, force, kind)
}

func (h *Handle) saveLocked(ctx context.Context, in SaveInput, force bool, kind string) (bool, error) {
	if h.finalized {
		return false, ErrFinalized
	}

	snap := snapshotOf(in.Record, in.StepID, in.Category)
	if !force && h.draft != nil && snap.equal(h.last) {
		return false, nil
	}

	now := time.Now()
	next := Draft{
		ID:        uuid.NewString(),
		TenantID:  h.tenantID,
		SubjectID: h.key.SubjectID,
		RecordID:  h.key.RecordID,
		Status:    StatusActive,
		CreatedAt: now,
	}
	if h.draft != nil {
		next = *h.draft
	}
	completion := careplan.Score(h.store.catalog, in.Record, in.Category, in.Context)
	next.AutoSaveData = in.Record.Clone()
	next.LastStepCompleted = in.StepID
	next.Category = in.Category
	next.CatalogVersion = h.store.catalog.Version()
	next.Completion = completion.Percentage
	next.UpdatedAt = now

	start := time.Now()
	err := h.store.drafts.Put(ctx, h.tenantID, &next)
	h.store.metrics.RecordSave(ctx, kind, time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("saving draft: %w", err)
	}

	h.draft = &next
	h.last = snap
	return true, nil
}

// Finalize saves the final state, commits it and marks the draft
// superseded. Once it succeeds the handle refuses further writes. A failure
// to mark the draft only gets logged; the plan is already committed.
func (h *Handle) Finalize(ctx context.Context, in FinalizeInput) (string, error) {
	status := in.Status
	if status == "" {
		status = careplan.DefaultStatus(in.Actor)
	}
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	unlock := h.store.locks.Lock(h.key.String())
	defer unlock()
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.saveLocked(ctx, in.SaveInput, true, saveKindExplicit); err != nil {
		return "", err
	}

	recordID, err := h.store.committer.Commit(ctx, h.tenantID, careplan.CommitRequest{
		RecordID:  h.key.RecordID,
		SubjectID: h.key.SubjectID,
		DraftID:   h.draft.ID,
		Data:      in.Record.Clone(),
		Category:  in.Category,
		Status:    status,
		Actor:     in.Actor,
	})
	h.store.metrics.RecordFinalize(ctx, err)
	if err != nil {
		return "", fmt.Errorf("committing care plan: %w", err)
	}
	h.finalized = true

	superseded := *h.draft
	superseded.Status = StatusSuperseded
	superseded.SupersededBy = recordID
	superseded.UpdatedAt = time.Now()
	if err := h.store.drafts.Put(ctx, h.tenantID, &superseded); err != nil {
		h.store.logger.Warn("marking draft superseded failed",
			"draft_id", superseded.ID, "record_id", recordID, "error", err)
	} else {
		h.draft = &superseded
	}

	h.store.publish(h.tenantID, Event{
		Type:       EventRecordFinalized,
		DraftID:    superseded.ID,
		SubjectID:  h.key.SubjectID,
		RecordID:   recordID,
		Status:     status,
		Actor:      in.Actor,
		OccurredAt: superseded.UpdatedAt,
	})

	return recordID, nil
}
