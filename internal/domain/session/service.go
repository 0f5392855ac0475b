package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/wizard"
)

// ControllerFactory builds an unloaded controller.
type ControllerFactory func(tenantID string, params wizard.OpenParams) *wizard.Controller

// Config wires a Service. NewController is required.
type Config struct {
	Sessions      Repository
	Activities    ActivityRepository
	NewController ControllerFactory
	Gauge         Gauge
	IdleTimeout   time.Duration
	Logger        *slog.Logger
}

// Service keeps the open wizards of every tenant.
type Service struct {
	sessions      Repository
	activities    ActivityRepository
	newController ControllerFactory
	gauge         Gauge
	idleTimeout   time.Duration
	logger        *slog.Logger

	mu   sync.Mutex
	open map[string]*entry
}

type entry struct {
	tenantID   string
	session    WizardSession
	controller *wizard.Controller
}

// NewService creates a new session service.
func NewService(cfg Config) *Service {
	s := &Service{
		sessions:      cfg.Sessions,
		activities:    cfg.Activities,
		newController: cfg.NewController,
		gauge:         cfg.Gauge,
		idleTimeout:   cfg.IdleTimeout,
		logger:        cfg.Logger,
		open:          make(map[string]*entry),
	}
	if s.gauge == nil {
		s.gauge = nopGauge{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// OpenRequest describes a wizard to open. An empty SessionID gets a new ID;
// a SessionID that already has an open wizard closes it first.
type OpenRequest struct {
	SessionID string
	SubjectID string
	RecordID  string
	ForceNew  bool
}

// OpenResult holds the session ID and the initial view.
type OpenResult struct {
	SessionID string      `json:"session_id"`
	View      wizard.View `json:"view"`
}

// Open registers a wizard and loads it. A load failure still returns the
// result: the session stays open in Loading so the caller can retry.
func (s *Service) Open(ctx context.Context, tenantID string, req OpenRequest) (*OpenResult, error) {
	if req.SubjectID == "" {
		return nil, ErrInvalidInput
	}

	id := req.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := s.lookup(tenantID, id); err == nil {
		if err := s.Close(ctx, tenantID, id); err != nil {
			s.logger.Warn("closing replaced wizard", "session_id", id, "error", err)
		}
	}

	now := time.Now()
	sess := WizardSession{
		ID:           id,
		TenantID:     tenantID,
		SubjectID:    req.SubjectID,
		RecordID:     req.RecordID,
		Status:       StatusActive,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.Create(ctx, tenantID, &sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	ctrl := s.newController(tenantID, wizard.OpenParams{
		SubjectID: req.SubjectID,
		RecordID:  req.RecordID,
		ForceNew:  req.ForceNew,
	})
	s.mu.Lock()
	s.open[key(tenantID, id)] = &entry{tenantID: tenantID, session: sess, controller: ctrl}
	s.mu.Unlock()
	s.gauge.SessionOpened(ctx)

	s.log(ctx, tenantID, sess, activity.TypeSessionOpened, fmt.Sprintf("opened wizard for subject %s", req.SubjectID))

	loadErr := ctrl.Load(ctx)
	return &OpenResult{SessionID: id, View: ctrl.View()}, loadErr
}

// Retry re-runs a failed load.
func (s *Service) Retry(ctx context.Context, tenantID, id string) (*wizard.View, error) {
	ctrl, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Load(ctx); err != nil {
		return nil, err
	}
	view := ctrl.View()
	return &view, nil
}

// Get returns the controller of an open wizard and records activity on it.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*wizard.Controller, error) {
	e, err := s.lookup(tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Touch(ctx, tenantID, id, time.Now()); err != nil {
		s.logger.Debug("touching session failed", "session_id", id, "error", err)
	}
	return e.controller, nil
}

// Finalize finalizes the wizard and drops it from the registry once it is
// closed.
func (s *Service) Finalize(ctx context.Context, tenantID, id string, p wizard.FinalizeParams) (*wizard.FinalizeResult, error) {
	ctrl, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	result, err := ctrl.Finalize(ctx, p)
	if ctrl.State() == wizard.StateClosed {
		s.release(ctx, tenantID, id)
	}
	return result, err
}

// Close saves and closes a wizard. The wizard is closed even when the save
// fails; the save error is returned.
func (s *Service) Close(ctx context.Context, tenantID, id string) error {
	e, err := s.lookup(tenantID, id)
	if err != nil {
		return err
	}
	closeErr := e.controller.Close(ctx)
	s.release(ctx, tenantID, id)
	return closeErr
}

// ListActive lists open sessions for a subject, or for the tenant when
// subjectID is empty.
func (s *Service) ListActive(ctx context.Context, tenantID, subjectID string) ([]WizardSession, error) {
	sessions, err := s.sessions.ListActive(ctx, tenantID, subjectID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return sessions, nil
}

// CloseIdle closes wizards idle since before now minus the idle timeout and
// returns how many were closed.
func (s *Service) CloseIdle(ctx context.Context, now time.Time) int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTimeout)

	var idle []*entry
	s.mu.Lock()
	for _, e := range s.open {
		if e.controller.LastActivity().Before(cutoff) {
			idle = append(idle, e)
		}
	}
	s.mu.Unlock()

	for _, e := range idle {
		if err := s.Close(ctx, e.tenantID, e.session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn("closing idle wizard", "tenant_id", e.tenantID, "session_id", e.session.ID, "error", err)
		}
	}
	return len(idle)
}

// CloseAll closes every open wizard.
func (s *Service) CloseAll(ctx context.Context) {
	s.mu.Lock()
	all := make([]*entry, 0, len(s.open))
	for _, e := range s.open {
		all = append(all, e)
	}
	s.mu.Unlock()

	for _, e := range all {
		if err := s.Close(ctx, e.tenantID, e.session.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn("closing wizard on shutdown", "tenant_id", e.tenantID, "session_id", e.session.ID, "error", err)
		}
	}
}

// RunReaper calls CloseIdle every interval until ctx is done.
func (s *Service) RunReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.CloseIdle(ctx, now); n > 0 {
				s.logger.Info("closed idle wizards", "count", n)
			}
		}
	}
}

// OpenCount returns the number of wizards currently registered.
func (s *Service) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

func (s *Service) lookup(tenantID, id string) (*entry, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.open[key(tenantID, id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e, nil
}

func (s *Service) release(ctx context.Context, tenantID, id string) {
	s.mu.Lock()
	e, ok := s.open[key(tenantID, id)]
	delete(s.open, key(tenantID, id))
	s.mu.Unlock()
	if !ok {
		return
	}

	s.gauge.SessionClosed(ctx)
	if err := s.sessions.Close(ctx, tenantID, id); err != nil {
		s.logger.Warn("marking session closed failed", "session_id", id, "error", err)
	}
	s.log(ctx, tenantID, e.session, activity.TypeSessionClosed, fmt.Sprintf("closed wizard for subject %s", e.session.SubjectID))
}

func (s *Service) log(ctx context.Context, tenantID string, sess WizardSession, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	entry := &activity.ActivityEntry{
		SubjectID:    sess.SubjectID,
		SessionID:    &sess.ID,
		ActivityType: typ,
		Summary:      summary,
	}
	if sess.RecordID != "" {
		entry.RecordID = &sess.RecordID
	}
	_ = s.activities.Log(ctx, tenantID, entry)
}

func key(tenantID, id string) string {
	return tenantID + "/" + id
}
