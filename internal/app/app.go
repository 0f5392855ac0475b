// Package app wires repositories into the domain services the server
// exposes.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/domain/record"
	"github.com/rpggio/careplan/internal/domain/session"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/rpggio/careplan/internal/domain/wizard"
	"github.com/rpggio/careplan/internal/mcp"
	"github.com/rpggio/careplan/internal/sqlstore"
	"github.com/rpggio/careplan/internal/telemetry"
)

// Config selects the stores and tuning of an App. DB is required. Drafts
// defaults to the SQL draft table.
type Config struct {
	DB               *sqlstore.DB
	Drafts           draft.Repository
	Publisher        activity.Publisher
	Metrics          *telemetry.Metrics
	AutosaveDebounce time.Duration
	UndoDepth        int
	IdleTimeout      time.Duration
	Logger           *slog.Logger
}

// App holds the wired services.
type App struct {
	Subjects *subject.Service
	Plans    *record.Service
	Activity *activity.Service
	Drafts   *draft.Store
	Sessions *session.Service
	APIKeys  *sqlstore.APIKeyRepository
}

// New builds every service on top of cfg.DB.
func New(cfg Config) (*App, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("app: database is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	metrics := cfg.Metrics
	if metrics == nil {
		var err error
		if metrics, err = telemetry.NewMetrics(nil); err != nil {
			return nil, fmt.Errorf("create metrics: %w", err)
		}
	}
	drafts := cfg.Drafts
	if drafts == nil {
		drafts = sqlstore.NewDraftRepository(cfg.DB)
	}

	activityRepo := sqlstore.NewActivityRepository(cfg.DB)
	activitySvc := activity.NewService(activityRepo, cfg.Publisher, logger.With("component", "activity"))
	subjectSvc := subject.NewService(sqlstore.NewSubjectRepository(cfg.DB), logger.With("component", "subject"))
	planSvc := record.NewService(
		sqlstore.NewPlanRepository(cfg.DB),
		sqlstore.NewAssignmentRepository(cfg.DB),
		sqlstore.NewCounterRepository(cfg.DB),
		activityRepo,
		nil,
		logger.With("component", "record"),
	)
	store := draft.NewStore(draft.Config{
		Drafts:    drafts,
		Committer: record.Committer{Plans: planSvc},
		Sink:      activitySvc,
		Metrics:   metrics,
		Logger:    logger.With("component", "draft"),
	})

	wizardLogger := logger.With("component", "wizard")
	sessions := session.NewService(session.Config{
		Sessions:   sqlstore.NewSessionRepository(cfg.DB),
		Activities: activityRepo,
		Gauge:      metrics,
		NewController: func(tenantID string, params wizard.OpenParams) *wizard.Controller {
			return wizard.New(tenantID, params, wizard.Deps{
				Profiles:  subjectSvc,
				Records:   planSvc,
				Drafts:    store,
				Logger:    wizardLogger.With("tenant_id", tenantID, "subject_id", params.SubjectID),
				Debounce:  cfg.AutosaveDebounce,
				UndoDepth: cfg.UndoDepth,
			})
		},
		IdleTimeout: cfg.IdleTimeout,
		Logger:      logger.With("component", "session"),
	})

	return &App{
		Subjects: subjectSvc,
		Plans:    planSvc,
		Activity: activitySvc,
		Drafts:   store,
		Sessions: sessions,
		APIKeys:  sqlstore.NewAPIKeyRepository(cfg.DB),
	}, nil
}

// MCPServices returns the services the MCP layer dispatches to.
func (a *App) MCPServices() mcp.Services {
	return mcp.Services{
		Wizards:  a.Sessions,
		Plans:    a.Plans,
		Subjects: a.Subjects,
		Drafts:   a.Drafts,
		Activity: a.Activity,
	}
}

// Shutdown closes every open wizard, saving pending edits, and waits for
// in-flight event deliveries.
func (a *App) Shutdown(ctx context.Context) {
	a.Sessions.CloseAll(ctx)
	a.Drafts.Wait()
}
