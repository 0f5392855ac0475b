package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/repository"
	"github.com/stretchr/testify/require"
)

func newDraft(id, subjectID, recordID string, updated time.Time) *draft.Draft {
	return &draft.Draft{
		ID:                id,
		SubjectID:         subjectID,
		RecordID:          recordID,
		AutoSaveData:      careplan.Record{AboutMe: &careplan.Narrative{Text: id}},
		LastStepCompleted: 3,
		Category:          catalog.CategoryAdult,
		CatalogVersion:    2,
		Completion:        10,
		Status:            draft.StatusActive,
		CreatedAt:         updated,
		UpdatedAt:         updated,
	}
}

func TestDraftRepository_PutGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	repo := NewDraftRepository(db)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Put(ctx, "tenant1", newDraft("d1", "s1", "", base)))
	require.NoError(t, repo.Put(ctx, "tenant1", newDraft("d2", "s1", "", base.Add(time.Minute))))
	require.NoError(t, repo.Put(ctx, "tenant1", newDraft("d3", "s1", "plan-1", base.Add(2*time.Minute))))

	got, err := repo.Get(ctx, "tenant1", draft.Key{SubjectID: "s1"})
	require.NoError(t, err)
	require.Equal(t, "d2", got.ID)
	require.Equal(t, "d2", got.AutoSaveData.AboutMe.Text)
	require.Equal(t, 2, got.CatalogVersion)
	require.Equal(t, catalog.CategoryAdult, got.Category)

	got, err = repo.Get(ctx, "tenant1", draft.Key{SubjectID: "s1", RecordID: "plan-1"})
	require.NoError(t, err)
	require.Equal(t, "d3", got.ID)

	_, err = repo.Get(ctx, "tenant2", draft.Key{SubjectID: "s1"})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDraftRepository_SupersededDraftUncoversOlderActive(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	repo := NewDraftRepository(db)

	base := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Put(ctx, "tenant1", newDraft("a", "s1", "", base)))
	fresh := newDraft("b", "s1", "", base.Add(time.Minute))
	require.NoError(t, repo.Put(ctx, "tenant1", fresh))

	fresh.Status = draft.StatusSuperseded
	fresh.SupersededBy = "plan-1"
	require.NoError(t, repo.Put(ctx, "tenant1", fresh))

	got, err := repo.Get(ctx, "tenant1", draft.Key{SubjectID: "s1"})
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
}

func TestDraftRepository_PutUpdatesAndSupersedes(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	repo := NewDraftRepository(db)

	d := newDraft("d1", "s1", "", time.Now())
	require.NoError(t, repo.Put(ctx, "tenant1", d))

	d.LastStepCompleted = 7
	d.AutoSaveData.General = &careplan.General{Language: "Welsh"}
	require.NoError(t, repo.Put(ctx, "tenant1", d))

	got, err := repo.GetByID(ctx, "tenant1", "d1")
	require.NoError(t, err)
	require.Equal(t, 7, got.LastStepCompleted)
	require.Equal(t, "Welsh", got.AutoSaveData.General.Language)

	d.Status = draft.StatusSuperseded
	d.SupersededBy = "plan-9"
	require.NoError(t, repo.Put(ctx, "tenant1", d))

	_, err = repo.Get(ctx, "tenant1", draft.Key{SubjectID: "s1"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err = repo.GetByID(ctx, "tenant1", "d1")
	require.NoError(t, err)
	require.Equal(t, draft.StatusSuperseded, got.Status)
	require.Equal(t, "plan-9", got.SupersededBy)

	list, err := repo.ListBySubject(ctx, "tenant1", "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDraftRepository_UnknownSubject(t *testing.T) {
	db := NewTestDB(t)
	repo := NewDraftRepository(db)

	err := repo.Put(context.Background(), "tenant1", newDraft("d1", "missing", "", time.Now()))
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}
