package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/record"
	"github.com/rpggio/careplan/internal/repository"
	"github.com/stretchr/testify/require"
)

func insertPlan(t *testing.T, db *DB, id, subjectID, tenantID string, status careplan.Status) *record.CarePlan {
	t.Helper()
	now := time.Now()
	plan := &record.CarePlan{
		ID:        id,
		SubjectID: subjectID,
		Status:    status,
		Category:  catalog.CategoryAdult,
		Data: careplan.Record{
			CareTeam: &careplan.CareTeam{ProviderType: careplan.ProviderStaff, StaffIDs: []string{"a"}},
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, NewPlanRepository(db).Create(context.Background(), tenantID, plan))
	return plan
}

func TestPlanRepository_CreateGetUpdate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	repo := NewPlanRepository(db)

	plan := insertPlan(t, db, "p1", "s1", "tenant1", careplan.StatusPendingApproval)

	got, err := repo.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, got.Data.CareTeam.StaffIDs)
	require.Equal(t, careplan.StatusPendingApproval, got.Status)

	plan.Version = 2
	plan.Status = careplan.StatusActive
	require.NoError(t, repo.Update(ctx, "tenant1", plan, 1))

	err = repo.Update(ctx, "tenant1", plan, 1)
	require.ErrorIs(t, err, repository.ErrConflict)

	missing := *plan
	missing.ID = "nope"
	err = repo.Update(ctx, "tenant1", &missing, 1)
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Get(ctx, "tenant2", "p1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPlanRepository_ListFilters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	insertSubject(t, db, "s2", "tenant1")
	repo := NewPlanRepository(db)

	insertPlan(t, db, "p1", "s1", "tenant1", careplan.StatusActive)
	insertPlan(t, db, "p2", "s1", "tenant1", careplan.StatusArchived)
	insertPlan(t, db, "p3", "s2", "tenant1", careplan.StatusActive)

	plans, err := repo.List(ctx, "tenant1", record.ListOptions{SubjectID: "s1"})
	require.NoError(t, err)
	require.Len(t, plans, 2)

	plans, err = repo.List(ctx, "tenant1", record.ListOptions{Statuses: []careplan.Status{careplan.StatusActive}})
	require.NoError(t, err)
	require.Len(t, plans, 2)

	plans, err = repo.List(ctx, "tenant2", record.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, plans)
}

func TestPlanRepository_Versions(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	repo := NewPlanRepository(db)
	plan := insertPlan(t, db, "p1", "s1", "tenant1", careplan.StatusActive)

	for v := int64(1); v <= 2; v++ {
		require.NoError(t, repo.AddVersion(ctx, "tenant1", &record.PlanVersion{
			PlanID: plan.ID, Version: v, Status: plan.Status, Data: plan.Data, CreatedBy: "u1", CreatedAt: time.Now(),
		}))
	}
	err := repo.AddVersion(ctx, "tenant1", &record.PlanVersion{PlanID: plan.ID, Version: 2, Status: plan.Status, CreatedAt: time.Now()})
	require.ErrorIs(t, err, repository.ErrConflict)

	versions, err := repo.ListVersions(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	require.Equal(t, int64(1), versions[0].Version)
	require.Equal(t, "u1", versions[1].CreatedBy)
}

func TestAssignmentRepository_Replace(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	insertPlan(t, db, "p1", "s1", "tenant1", careplan.StatusActive)
	repo := NewAssignmentRepository(db)

	require.NoError(t, repo.Replace(ctx, "tenant1", "p1", careplan.Assignments([]string{"w", "x", "y"})))
	require.NoError(t, repo.Replace(ctx, "tenant1", "p1", careplan.Assignments([]string{"z", "w"})))

	got, err := repo.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Equal(t, []careplan.StaffAssignment{
		{StaffID: "z", IsPrimary: true},
		{StaffID: "w"},
	}, got)

	require.NoError(t, repo.Replace(ctx, "tenant1", "p1", nil))
	got, err = repo.Get(ctx, "tenant1", "p1")
	require.NoError(t, err)
	require.Empty(t, got)

	err = repo.Replace(ctx, "tenant1", "missing", careplan.Assignments([]string{"a"}))
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestCounterRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertSubject(t, db, "s1", "tenant1")
	insertPlan(t, db, "p1", "s1", "tenant1", careplan.StatusActive)
	repo := NewCounterRepository(db)

	n, err := repo.Get(ctx, "tenant1", "p1", careplan.CounterMedication)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, repo.Set(ctx, "tenant1", "p1", careplan.CounterMedication, 2))
	require.NoError(t, repo.Set(ctx, "tenant1", "p1", careplan.CounterMedication, 3))

	n, err = repo.Get(ctx, "tenant1", "p1", careplan.CounterMedication)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = repo.Get(ctx, "tenant2", "p1", careplan.CounterMedication)
	require.NoError(t, err)
	require.Zero(t, n)
}
