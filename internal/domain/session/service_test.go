package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/domain/session"
	"github.com/rpggio/careplan/internal/domain/wizard"
	"github.com/rpggio/careplan/internal/repository"
	"github.com/rpggio/careplan/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tenantID = "tenant1"

type profiles struct {
	mu  sync.Mutex
	err error
}

func (p *profiles) GetProfile(_ context.Context, _ string, subjectID string) (*careplan.SubjectProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return &careplan.SubjectProfile{ID: subjectID, Category: catalog.CategoryAdult, FullName: "Ada"}, nil
}

type noRecords struct{}

func (noRecords) GetData(context.Context, string, string) (*careplan.Record, error) {
	return &careplan.Record{}, nil
}

func (noRecords) GetAssignments(context.Context, string, string) ([]careplan.StaffAssignment, error) {
	return nil, nil
}

func (noRecords) GetExternalCount(context.Context, string, string, careplan.CounterKind) (int, error) {
	return 0, nil
}

type gauge struct {
	mu   sync.Mutex
	open int
}

func (g *gauge) SessionOpened(context.Context) { g.mu.Lock(); g.open++; g.mu.Unlock() }
func (g *gauge) SessionClosed(context.Context) { g.mu.Lock(); g.open--; g.mu.Unlock() }

type fixture struct {
	sessions   *mocks.SessionRepository
	activities *mocks.ActivityRepository
	drafts     *mocks.DraftRepository
	profiles   *profiles
	gauge      *gauge
	svc        *session.Service
}

func newFixture(idle time.Duration) *fixture {
	f := &fixture{
		sessions:   &mocks.SessionRepository{},
		activities: &mocks.ActivityRepository{},
		drafts:     &mocks.DraftRepository{},
		profiles:   &profiles{},
		gauge:      &gauge{},
	}
	f.sessions.On("Create", mock.Anything, tenantID, mock.Anything).Return(nil).Maybe()
	f.sessions.On("Touch", mock.Anything, tenantID, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.sessions.On("Close", mock.Anything, tenantID, mock.Anything).Return(nil).Maybe()
	f.activities.On("Log", mock.Anything, tenantID, mock.Anything).Return(nil).Maybe()
	f.drafts.On("Get", mock.Anything, tenantID, mock.Anything).Return(nil, repository.ErrNotFound).Maybe()
	f.drafts.On("Put", mock.Anything, tenantID, mock.Anything).Return(nil).Maybe()

	store := draft.NewStore(draft.Config{Drafts: f.drafts, Committer: &mocks.Committer{}})
	f.svc = session.NewService(session.Config{
		Sessions:   f.sessions,
		Activities: f.activities,
		Gauge:      f.gauge,
		NewController: func(tenantID string, params wizard.OpenParams) *wizard.Controller {
			return wizard.New(tenantID, params, wizard.Deps{
				Profiles: f.profiles,
				Records:  noRecords{},
				Drafts:   store,
				Debounce: time.Hour,
			})
		},
		IdleTimeout: idle,
	})
	return f
}

func TestSessionService_OpenGetClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)

	result, err := f.svc.Open(ctx, tenantID, session.OpenRequest{SubjectID: "s1"})
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionID)
	require.Equal(t, wizard.StateReady, result.View.State)
	require.Equal(t, 1, f.gauge.open)

	ctrl, err := f.svc.Get(ctx, tenantID, result.SessionID)
	require.NoError(t, err)
	require.NoError(t, ctrl.UpdateSection(catalog.SectionAboutMe, []byte(`{"text":"hello"}`)))

	require.NoError(t, f.svc.Close(ctx, tenantID, result.SessionID))
	require.Equal(t, wizard.StateClosed, ctrl.State())
	require.Equal(t, 0, f.gauge.open)
	f.drafts.AssertCalled(t, "Put", mock.Anything, tenantID, mock.Anything)

	_, err = f.svc.Get(ctx, tenantID, result.SessionID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	f.activities.AssertNumberOfCalls(t, "Log", 2)
}

func TestSessionService_OpenKeepsSessionWhenLoadFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)
	f.profiles.err = errors.New("lookup timeout")

	result, err := f.svc.Open(ctx, tenantID, session.OpenRequest{SessionID: "mcp-1", SubjectID: "s1"})
	var loadErr *wizard.LoadError
	require.ErrorAs(t, err, &loadErr)
	require.Equal(t, "mcp-1", result.SessionID)
	require.Equal(t, wizard.StateLoading, result.View.State)

	f.profiles.mu.Lock()
	f.profiles.err = nil
	f.profiles.mu.Unlock()

	view, err := f.svc.Retry(ctx, tenantID, "mcp-1")
	require.NoError(t, err)
	require.Equal(t, wizard.StateReady, view.State)
	f.svc.CloseAll(ctx)
}

func TestSessionService_OpenReplacesSameSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)

	_, err := f.svc.Open(ctx, tenantID, session.OpenRequest{SessionID: "mcp-1", SubjectID: "s1"})
	require.NoError(t, err)
	first, err := f.svc.Get(ctx, tenantID, "mcp-1")
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, tenantID, session.OpenRequest{SessionID: "mcp-1", SubjectID: "s2"})
	require.NoError(t, err)
	require.Equal(t, wizard.StateClosed, first.State())
	require.Equal(t, 1, f.svc.OpenCount())
	require.Equal(t, 1, f.gauge.open)
	f.svc.CloseAll(ctx)
}

func TestSessionService_CloseIdle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(time.Minute)

	_, err := f.svc.Open(ctx, tenantID, session.OpenRequest{SessionID: "a", SubjectID: "s1"})
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, tenantID, session.OpenRequest{SessionID: "b", SubjectID: "s2"})
	require.NoError(t, err)

	require.Equal(t, 0, f.svc.CloseIdle(ctx, time.Now()))
	require.Equal(t, 2, f.svc.CloseIdle(ctx, time.Now().Add(2*time.Minute)))
	require.Equal(t, 0, f.svc.OpenCount())
}

func TestSessionService_FinalizeReleasesClosedWizard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(0)
	committer := &mocks.Committer{}
	committer.On("Commit", mock.Anything, tenantID, mock.Anything).Return("plan-1", nil)
	store := draft.NewStore(draft.Config{Drafts: f.drafts, Committer: committer})
	svc := session.NewService(session.Config{
		Sessions:   f.sessions,
		Activities: f.activities,
		NewController: func(tenantID string, params wizard.OpenParams) *wizard.Controller {
			return wizard.New(tenantID, params, wizard.Deps{Profiles: f.profiles, Records: noRecords{}, Drafts: store})
		},
	})

	_, err := svc.Open(ctx, tenantID, session.OpenRequest{SessionID: "w1", SubjectID: "s1"})
	require.NoError(t, err)

	_, err = svc.Finalize(ctx, tenantID, "w1", wizard.FinalizeParams{Override: true})
	require.ErrorIs(t, err, wizard.ErrNotLastStep)
	require.Equal(t, 1, svc.OpenCount())

	ctrl, err := svc.Get(ctx, tenantID, "w1")
	require.NoError(t, err)
	require.NoError(t, ctrl.JumpTo(ctx, 12))

	result, err := svc.Finalize(ctx, tenantID, "w1", wizard.FinalizeParams{Override: true})
	require.NoError(t, err)
	require.Equal(t, "plan-1", result.RecordID)
	require.Equal(t, 0, svc.OpenCount())
}

func TestSessionService_Validation(t *testing.T) {
	f := newFixture(0)
	_, err := f.svc.Open(context.Background(), tenantID, session.OpenRequest{})
	require.ErrorIs(t, err, session.ErrInvalidInput)
	require.ErrorIs(t, f.svc.Close(context.Background(), tenantID, "nope"), session.ErrSessionNotFound)
}
