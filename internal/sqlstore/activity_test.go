package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/careplan/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	entry1 := &activity.ActivityEntry{
		SubjectID:    "s1",
		ActivityType: activity.TypeSessionOpened,
		Summary:      "opened wizard",
	}
	entry2 := &activity.ActivityEntry{
		SubjectID:    "s1",
		ActivityType: activity.TypeRecordFinalized,
		Summary:      "finalized",
		Details:      `{"record_id":"p1"}`,
	}

	require.NoError(t, repo.Log(ctx, "tenant1", entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, "tenant1", entry2))
	require.NotZero(t, entry2.ID)

	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{SubjectID: "s1"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Nil(t, entries[1].RecordID)
}

func TestActivityRepository_FiltersAndTenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	sessionID := "w1"
	recordID := "p1"
	entry := &activity.ActivityEntry{
		SubjectID:    "s1",
		SessionID:    &sessionID,
		RecordID:     &recordID,
		ActivityType: activity.TypeStatusChanged,
		Summary:      "approved",
	}
	require.NoError(t, repo.Log(ctx, "tenant1", entry))
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		SubjectID: "s1", ActivityType: activity.TypeSessionClosed, Summary: "closed",
	}))

	activityType := activity.TypeStatusChanged
	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{
		SessionID:    &sessionID,
		RecordID:     &recordID,
		ActivityType: &activityType,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "p1", *entries[0].RecordID)

	entries, err = repo.List(ctx, "tenant1", activity.ListActivityOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.List(ctx, "tenant2", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Empty(t, entries)
}
