package draft_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/repository"
	"github.com/rpggio/careplan/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tenantID = "tenant1"

type recorder struct {
	mu        sync.Mutex
	saves     []string
	finalizes []error
}

func (r *recorder) RecordSave(_ context.Context, kind string, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, kind)
}

func (r *recorder) RecordFinalize(_ context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finalizes = append(r.finalizes, err)
}

type fixture struct {
	repo      *mocks.DraftRepository
	committer *mocks.Committer
	sink      *mocks.EventSink
	metrics   *recorder
	store     *draft.Store
	puts      []draft.Draft
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      &mocks.DraftRepository{},
		committer: &mocks.Committer{},
		sink:      &mocks.EventSink{},
		metrics:   &recorder{},
	}
	f.store = draft.NewStore(draft.Config{
		Drafts:    f.repo,
		Committer: f.committer,
		Sink:      f.sink,
		Metrics:   f.metrics,
	})
	return f
}

func (f *fixture) expectPuts(err error) {
	f.repo.On("Put", mock.Anything, tenantID, mock.AnythingOfType("*draft.Draft")).
		Run(func(args mock.Arguments) {
			f.puts = append(f.puts, *args.Get(2).(*draft.Draft))
		}).
		Return(err)
}

func aboutMe(text string) careplan.Record {
	return careplan.Record{AboutMe: &careplan.Narrative{Text: text}}
}

func TestLoadDraft_ForceNewSkipsExistingDraft(t *testing.T) {
	f := newFixture(t)

	d, err := f.store.LoadDraft(context.Background(), tenantID, draft.LoadRequest{SubjectID: "s1", ForceNew: true})
	require.NoError(t, err)
	require.Nil(t, d)
	f.repo.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoadDraft_ReturnsLatestActive(t *testing.T) {
	f := newFixture(t)
	existing := &draft.Draft{ID: "d1", SubjectID: "s1", Status: draft.StatusActive}
	f.repo.On("Get", mock.Anything, tenantID, draft.Key{SubjectID: "s1"}).Return(existing, nil)

	d, err := f.store.LoadDraft(context.Background(), tenantID, draft.LoadRequest{SubjectID: "s1"})
	require.NoError(t, err)
	require.Equal(t, "d1", d.ID)
}

func TestLoadDraft_MissingDraftIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.repo.On("Get", mock.Anything, tenantID, draft.Key{SubjectID: "s1", RecordID: "p1"}).
		Return(nil, repository.ErrNotFound)

	d, err := f.store.LoadDraft(context.Background(), tenantID, draft.LoadRequest{SubjectID: "s1", RecordID: "p1"})
	require.NoError(t, err)
	require.Nil(t, d)
}

func TestLoadDraft_Errors(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.repo.On("Get", mock.Anything, tenantID, draft.Key{SubjectID: "s1"}).Return(nil, boom)

	_, err := f.store.LoadDraft(context.Background(), tenantID, draft.LoadRequest{SubjectID: "s1"})
	require.ErrorIs(t, err, boom)

	_, err = f.store.LoadDraft(context.Background(), tenantID, draft.LoadRequest{})
	require.ErrorIs(t, err, draft.ErrInvalidInput)
}

func TestGetDraft_NotFound(t *testing.T) {
	f := newFixture(t)
	f.repo.On("GetByID", mock.Anything, tenantID, "missing").Return(nil, repository.ErrNotFound)

	_, err := f.store.GetDraft(context.Background(), tenantID, "missing")
	require.ErrorIs(t, err, draft.ErrDraftNotFound)
}

func TestAutosave_SkipsUnchangedState(t *testing.T) {
	f := newFixture(t)
	f.expectPuts(nil)
	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)
	ctx := context.Background()
	in := draft.SaveInput{Record: aboutMe("likes tea"), StepID: 2, Category: catalog.CategoryAdult}

	wrote, err := h.Autosave(ctx, in)
	require.NoError(t, err)
	require.True(t, wrote)

	wrote, err = h.Autosave(ctx, in)
	require.NoError(t, err)
	require.False(t, wrote)
	require.Len(t, f.puts, 1)

	in.StepID = 3
	wrote, err = h.Autosave(ctx, in)
	require.NoError(t, err)
	require.True(t, wrote)
	require.Len(t, f.puts, 2)
	require.Equal(t, f.puts[0].ID, f.puts[1].ID)
	require.Equal(t, f.puts[0].CreatedAt, f.puts[1].CreatedAt)
	require.Equal(t, []string{"autosave", "autosave"}, f.metrics.saves)
}

func TestAutosave_FillsDerivedFields(t *testing.T) {
	f := newFixture(t)
	f.expectPuts(nil)
	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1", RecordID: "p1"}, nil)

	_, err := h.Autosave(context.Background(), draft.SaveInput{
		Record:   aboutMe("likes tea"),
		StepID:   2,
		Category: catalog.CategoryAdult,
	})
	require.NoError(t, err)

	got := f.puts[0]
	require.NotEmpty(t, got.ID)
	require.Equal(t, tenantID, got.TenantID)
	require.Equal(t, "s1", got.SubjectID)
	require.Equal(t, "p1", got.RecordID)
	require.Equal(t, draft.StatusActive, got.Status)
	require.Equal(t, catalog.Default().Version(), got.CatalogVersion)
	require.Equal(t, 10, got.Completion)
	require.Equal(t, got.ID, h.DraftID())
}

func TestOpen_ExistingDraftIsBaseline(t *testing.T) {
	f := newFixture(t)
	existing := &draft.Draft{
		ID:                "d1",
		SubjectID:         "s1",
		AutoSaveData:      aboutMe("likes tea"),
		LastStepCompleted: 2,
		Category:          catalog.CategoryAdult,
		Status:            draft.StatusActive,
	}
	h := f.store.Open(tenantID, existing.Key(), existing)

	wrote, err := h.Autosave(context.Background(), draft.SaveInput{
		Record:   aboutMe("likes tea"),
		StepID:   2,
		Category: catalog.CategoryAdult,
	})
	require.NoError(t, err)
	require.False(t, wrote)
	f.repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestSaveDraft_AlwaysWrites(t *testing.T) {
	f := newFixture(t)
	f.expectPuts(nil)
	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)
	in := draft.SaveInput{Record: aboutMe("x"), StepID: 1, Category: catalog.CategoryChild}

	require.NoError(t, h.SaveDraft(context.Background(), in))
	require.NoError(t, h.SaveDraft(context.Background(), in))
	require.Len(t, f.puts, 2)
	require.Equal(t, []string{"explicit", "explicit"}, f.metrics.saves)
}

func TestAutosave_FailureIsRetried(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("disk full")
	f.repo.On("Put", mock.Anything, tenantID, mock.Anything).Return(boom).Once()
	f.expectPuts(nil)
	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)
	in := draft.SaveInput{Record: aboutMe("x"), StepID: 1, Category: catalog.CategoryAdult}

	_, err := h.Autosave(context.Background(), in)
	require.ErrorIs(t, err, boom)
	require.Nil(t, h.Draft())

	wrote, err := h.Autosave(context.Background(), in)
	require.NoError(t, err)
	require.True(t, wrote)
}

func TestFinalize_CommitsSupersedesAndPublishes(t *testing.T) {
	f := newFixture(t)
	f.expectPuts(nil)
	f.committer.On("Commit", mock.Anything, tenantID, mock.MatchedBy(func(req careplan.CommitRequest) bool {
		return req.SubjectID == "s1" && req.Status == careplan.StatusActive &&
			req.DraftID != "" && req.Data.AboutMe.Text == "done"
	})).Return("plan-1", nil)
	f.sink.On("Publish", mock.Anything, tenantID, mock.MatchedBy(func(ev draft.Event) bool {
		return ev.Type == draft.EventRecordFinalized && ev.RecordID == "plan-1"
	})).Return(nil)

	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)
	recordID, err := h.Finalize(context.Background(), draft.FinalizeInput{
		SaveInput: draft.SaveInput{Record: aboutMe("done"), StepID: 12, Category: catalog.CategoryAdult},
		Actor:     careplan.Actor{UserID: "u1", Role: careplan.RoleManager},
	})
	require.NoError(t, err)
	require.Equal(t, "plan-1", recordID)

	require.Len(t, f.puts, 2)
	require.Equal(t, draft.StatusSuperseded, f.puts[1].Status)
	require.Equal(t, "plan-1", f.puts[1].SupersededBy)
	require.Equal(t, []error{nil}, f.metrics.finalizes)

	f.store.Wait()
	f.sink.AssertExpectations(t)

	_, err = h.Autosave(context.Background(), draft.SaveInput{Record: aboutMe("late")})
	require.ErrorIs(t, err, draft.ErrFinalized)
}

func TestFinalize_DefaultStatusFollowsRole(t *testing.T) {
	f := newFixture(t)
	f.expectPuts(nil)
	f.committer.On("Commit", mock.Anything, tenantID, mock.MatchedBy(func(req careplan.CommitRequest) bool {
		return req.Status == careplan.StatusPendingApproval
	})).Return("plan-2", nil)
	f.sink.On("Publish", mock.Anything, tenantID, mock.Anything).Return(nil)

	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)
	_, err := h.Finalize(context.Background(), draft.FinalizeInput{
		SaveInput: draft.SaveInput{Record: aboutMe("done")},
		Actor:     careplan.Actor{Role: careplan.RoleCarer},
	})
	require.NoError(t, err)
	f.store.Wait()
	f.committer.AssertExpectations(t)
}

func TestFinalize_CommitFailureKeepsDraftWritable(t *testing.T) {
	f := newFixture(t)
	f.expectPuts(nil)
	boom := errors.New("db down")
	f.committer.On("Commit", mock.Anything, tenantID, mock.Anything).Return("", boom)

	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)
	_, err := h.Finalize(context.Background(), draft.FinalizeInput{
		SaveInput: draft.SaveInput{Record: aboutMe("done")},
	})
	require.ErrorIs(t, err, boom)
	require.Len(t, f.puts, 1)
	require.Equal(t, draft.StatusActive, h.Draft().Status)
	require.Equal(t, []error{boom}, f.metrics.finalizes)
	f.sink.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, h.SaveDraft(context.Background(), draft.SaveInput{Record: aboutMe("again")}))
}

func TestFinalize_SupersedeFailureStillSucceeds(t *testing.T) {
	f := newFixture(t)
	f.repo.On("Put", mock.Anything, tenantID, mock.MatchedBy(func(d *draft.Draft) bool {
		return d.Status == draft.StatusActive
	})).Return(nil)
	f.repo.On("Put", mock.Anything, tenantID, mock.MatchedBy(func(d *draft.Draft) bool {
		return d.Status == draft.StatusSuperseded
	})).Return(errors.New("locked"))
	f.committer.On("Commit", mock.Anything, tenantID, mock.Anything).Return("plan-3", nil)
	f.sink.On("Publish", mock.Anything, tenantID, mock.Anything).Return(errors.New("no subscribers"))

	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)
	recordID, err := h.Finalize(context.Background(), draft.FinalizeInput{
		SaveInput: draft.SaveInput{Record: aboutMe("done")},
	})
	require.NoError(t, err)
	require.Equal(t, "plan-3", recordID)
	f.store.Wait()
}

func TestFinalize_RejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	h := f.store.Open(tenantID, draft.Key{SubjectID: "s1"}, nil)

	_, err := h.Finalize(context.Background(), draft.FinalizeInput{Status: "draft"})
	require.ErrorIs(t, err, draft.ErrInvalidStatus)
	f.repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestKey_String(t *testing.T) {
	require.Equal(t, "s1/new", draft.Key{SubjectID: "s1"}.String())
	require.Equal(t, "s1/p1", draft.Key{SubjectID: "s1", RecordID: "p1"}.String())
}
