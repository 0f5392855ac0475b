package subject_test

import (
	"context"
	"testing"

	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/rpggio/careplan/internal/repository"
	"github.com/rpggio/careplan/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSubjectService_Create(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant1"

	repo := &mocks.SubjectRepository{}
	repo.On("Create", ctx, tenantID, mock.AnythingOfType("*subject.Subject")).Return(nil)

	svc := subject.NewService(repo, nil)
	subj, err := svc.Create(ctx, tenantID, subject.CreateRequest{
		Category: catalog.CategoryChild,
		FullName: "  Tom Thumb ",
	})
	require.NoError(t, err)
	require.NotEmpty(t, subj.ID)
	require.Equal(t, "Tom Thumb", subj.FullName)
	require.Equal(t, tenantID, subj.TenantID)
}

func TestSubjectService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := subject.NewService(&mocks.SubjectRepository{}, nil)

	_, err := svc.Create(ctx, "tenant1", subject.CreateRequest{Category: catalog.CategoryAdult})
	require.ErrorIs(t, err, subject.ErrInvalidInput)

	_, err = svc.Create(ctx, "tenant1", subject.CreateRequest{FullName: "Ada", Category: "teen"})
	require.ErrorIs(t, err, subject.ErrInvalidInput)
}

func TestSubjectService_GetProfile(t *testing.T) {
	ctx := context.Background()
	tenantID := "tenant1"

	repo := &mocks.SubjectRepository{}
	repo.On("Get", ctx, tenantID, "s1").Return(&subject.Subject{
		ID:            "s1",
		Category:      catalog.CategoryOlderAdult,
		FullName:      "Ada Lovelace",
		PreferredName: "Ada",
	}, nil)
	repo.On("Get", ctx, tenantID, "missing").Return(nil, repository.ErrNotFound)

	svc := subject.NewService(repo, nil)
	profile, err := svc.GetProfile(ctx, tenantID, "s1")
	require.NoError(t, err)
	require.Equal(t, catalog.CategoryOlderAdult, profile.Category)
	require.Equal(t, "Ada", profile.PreferredName)

	_, err = svc.GetProfile(ctx, tenantID, "missing")
	require.ErrorIs(t, err, subject.ErrSubjectNotFound)
}
