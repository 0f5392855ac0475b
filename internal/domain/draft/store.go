package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/repository"
)

const (
	defaultSinkTimeout = 5 * time.Second

	saveKindAuto     = "autosave"
	saveKindExplicit = "explicit"
)

// Config wires a Store. Drafts and Committer are required.
type Config struct {
	Drafts      Repository
	Committer   Committer
	Sink        EventSink
	Metrics     Recorder
	Catalog     *catalog.Catalog
	Logger      *slog.Logger
	SinkTimeout time.Duration
}

// Store loads drafts and hands out write handles for them.
type Store struct {
	drafts      Repository
	committer   Committer
	sink        EventSink
	metrics     Recorder
	catalog     *catalog.Catalog
	logger      *slog.Logger
	sinkTimeout time.Duration

	locks   *keyLock
	pending sync.WaitGroup
}

// NewStore creates a draft store.
func NewStore(cfg Config) *Store {
	s := &Store{
		drafts:      cfg.Drafts,
		committer:   cfg.Committer,
		sink:        cfg.Sink,
		metrics:     cfg.Metrics,
		catalog:     cfg.Catalog,
		logger:      cfg.Logger,
		sinkTimeout: cfg.SinkTimeout,
		locks:       newKeyLock(),
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.sinkTimeout <= 0 {
		s.sinkTimeout = defaultSinkTimeout
	}
	return s
}

// Catalog returns the catalog drafts are scored against.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// LoadDraft returns the latest active draft for a slot. It returns nil
// without error when there is none or when the caller forces a new draft.
func (s *Store) LoadDraft(ctx context.Context, tenantID string, req LoadRequest) (*Draft, error) {
	if req.SubjectID == "" {
		return nil, ErrInvalidInput
	}
	if req.ForceNew {
		return nil, nil
	}

	d, err := s.drafts.Get(ctx, tenantID, Key{SubjectID: req.SubjectID, RecordID: req.RecordID})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return d, nil
}

// GetDraft returns a draft by ID regardless of status.
func (s *Store) GetDraft(ctx context.Context, tenantID, id string) (*Draft, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	d, err := s.drafts.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("loading draft: %w", err)
	}
	return d, nil
}

// ListDrafts returns every draft for a subject.
func (s *Store) ListDrafts(ctx context.Context, tenantID, subjectID string) ([]Draft, error) {
	if subjectID == "" {
		return nil, ErrInvalidInput
	}
	drafts, err := s.drafts.ListBySubject(ctx, tenantID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return drafts, nil
}

// Open returns a handle that writes to existing, or creates a new draft on
// its first save when existing is nil.
func (s *Store) Open(tenantID string, key Key, existing *Draft) *Handle {
	h := &Handle{store: s, tenantID: tenantID, key: key}
	if existing != nil {
		d := *existing
		d.AutoSaveData = existing.AutoSaveData.Clone()
		h.draft = &d
		h.last = snapshotOf(d.AutoSaveData, d.LastStepCompleted, d.Category)
	}
	return h
}

// Wait blocks until in-flight event deliveries have finished.
func (s *Store) Wait() {
	s.pending.Wait()
}

func (s *Store) publish(tenantID string, ev Event) {
	if s.sink == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.sinkTimeout)
		defer cancel()
		if err := s.sink.Publish(ctx, tenantID, ev); err != nil {
			s.logger.Warn("publishing draft event failed",
				"type", ev.Type, "draft_id", ev.DraftID, "record_id", ev.RecordID, "error", err)
		}
	}()
}
