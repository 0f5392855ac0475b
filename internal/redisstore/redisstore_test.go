package redisstore

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rpggio/careplan/internal/domain/careplan"
	"github.com/rpggio/careplan/internal/domain/draft"
	"github.com/rpggio/careplan/internal/repository"
	"github.com/stretchr/testify/require"
)

// newTestClient connects to CAREPLAN_TEST_REDIS_ADDR under a random prefix.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("CAREPLAN_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CAREPLAN_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	c := newClient(rdb, "careplan-test-"+uuid.NewString())
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, c.prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		c.Close()
	})
	return c
}

func TestKeyLayout(t *testing.T) {
	c := newClient(nil, "")
	repo := NewDraftRepository(c)
	require.Equal(t, "careplan:t1:draft:d1", repo.draftKey("t1", "d1"))
	require.Equal(t, "careplan:t1:slot:s1/new", repo.slotKey("t1", draft.Key{SubjectID: "s1"}))
	require.Equal(t, "careplan:t1:slot:s1/p1", repo.slotKey("t1", draft.Key{SubjectID: "s1", RecordID: "p1"}))
	require.Equal(t, "careplan:t1:events", NewEventPublisher(c).Channel("t1"))
}

func TestDraftRepository_RoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewDraftRepository(c)

	_, err := repo.Get(ctx, "t1", draft.Key{SubjectID: "s1"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	d := &draft.Draft{
		ID:                "d1",
		SubjectID:         "s1",
		AutoSaveData:      careplan.Record{AboutMe: &careplan.Narrative{Text: "hi"}},
		LastStepCompleted: 4,
		Status:            draft.StatusActive,
		UpdatedAt:         time.Now(),
	}
	require.NoError(t, repo.Put(ctx, "t1", d))

	got, err := repo.Get(ctx, "t1", draft.Key{SubjectID: "s1"})
	require.NoError(t, err)
	require.Equal(t, "hi", got.AutoSaveData.AboutMe.Text)
	require.Equal(t, 4, got.LastStepCompleted)

	d.Status = draft.StatusSuperseded
	d.SupersededBy = "p1"
	require.NoError(t, repo.Put(ctx, "t1", d))

	_, err = repo.Get(ctx, "t1", draft.Key{SubjectID: "s1"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	list, err := repo.ListBySubject(ctx, "t1", "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, draft.StatusSuperseded, list[0].Status)
}

func TestDraftRepository_ReleasedSlotFallsBackToOlderDraft(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	repo := NewDraftRepository(c)
	base := time.Now().Add(-time.Hour)
	key := draft.Key{SubjectID: "s1"}

	abandoned := &draft.Draft{ID: "a", SubjectID: "s1", Status: draft.StatusActive, UpdatedAt: base}
	require.NoError(t, repo.Put(ctx, "t1", abandoned))

	fresh := &draft.Draft{ID: "b", SubjectID: "s1", Status: draft.StatusActive, UpdatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Put(ctx, "t1", fresh))
	got, err := repo.Get(ctx, "t1", key)
	require.NoError(t, err)
	require.Equal(t, "b", got.ID)

	fresh.Status = draft.StatusSuperseded
	fresh.SupersededBy = "p1"
	require.NoError(t, repo.Put(ctx, "t1", fresh))

	got, err = repo.Get(ctx, "t1", key)
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)
}

func TestLatestActive(t *testing.T) {
	key := draft.Key{SubjectID: "s1"}
	drafts := []draft.Draft{
		{ID: "edit", SubjectID: "s1", RecordID: "p1", Status: draft.StatusActive},
		{ID: "done", SubjectID: "s1", Status: draft.StatusSuperseded},
		{ID: "older", SubjectID: "s1", Status: draft.StatusActive},
		{ID: "oldest", SubjectID: "s1", Status: draft.StatusActive},
	}

	got, ok := latestActive(drafts, key)
	require.True(t, ok)
	require.Equal(t, "older", got.ID)

	_, ok = latestActive(drafts[:2], key)
	require.False(t, ok)
}

func TestEventPublisher_Publish(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	pub := NewEventPublisher(c)

	sub := c.rdb.Subscribe(ctx, pub.Channel("t1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, pub.Publish(ctx, "t1", draft.Event{Type: draft.EventRecordFinalized, RecordID: "p1"}))

	select {
	case msg := <-sub.Channel():
		var ev draft.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		require.Equal(t, "p1", ev.RecordID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}
