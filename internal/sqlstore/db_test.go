package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/domain/catalog"
	"github.com/rpggio/careplan/internal/domain/subject"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func insertSubject(t *testing.T, db *DB, id, tenantID string) {
	t.Helper()
	repo := NewSubjectRepository(db)
	require.NoError(t, repo.Create(context.Background(), tenantID, &subject.Subject{
		ID:        id,
		Category:  catalog.CategoryAdult,
		FullName:  "Subject " + id,
		CreatedAt: time.Now(),
	}))
}

func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"subjects",
		"care_plans",
		"care_plan_versions",
		"staff_assignments",
		"external_counts",
		"drafts",
		"wizard_sessions",
		"activity_log",
		"api_keys",
	}
	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	require.NoError(t, db.RunMigrations(), "migrations must be re-runnable")
}

func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "mysql"})
	require.Error(t, err)
}

func TestSubjectRepository(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSubjectRepository(db)

	child := &subject.Subject{ID: "s2", Category: catalog.CategoryChild, FullName: "Billy", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, "tenant1", child))
	insertSubject(t, db, "s1", "tenant1")
	insertSubject(t, db, "s3", "tenant2")

	err := repo.Create(ctx, "tenant1", child)
	require.Error(t, err)

	got, err := repo.Get(ctx, "tenant1", "s2")
	require.NoError(t, err)
	require.Equal(t, "Billy", got.FullName)
	require.Equal(t, catalog.CategoryChild, got.Category)

	_, err = repo.Get(ctx, "tenant2", "s2")
	require.Error(t, err)

	all, err := repo.List(ctx, "tenant1", subject.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "Billy", all[0].FullName)

	children, err := repo.List(ctx, "tenant1", subject.ListOptions{Category: catalog.CategoryChild})
	require.NoError(t, err)
	require.Len(t, children, 1)

	paged, err := repo.List(ctx, "tenant1", subject.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "s1", paged[0].ID)
}
