package generation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageStore_DailyRollover(t *testing.T) {
	kv := newFakeKV()
	clock := &fakeClock{now: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)}
	store := NewUsageStore(kv)
	store.now = clock.Now
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "d1", "u1"))
	assert.Equal(t, 1, store.ForToday(ctx, "u1").Count)

	// Next calendar day: yesterday's record is never returned.
	clock.Advance(24 * time.Hour)
	daily := store.ForToday(ctx, "u1")
	assert.Equal(t, 0, daily.Count)
	assert.Equal(t, "2026-08-27", daily.Date)

	// And it is pruned from storage on the next write, for every user.
	require.NoError(t, store.Record(ctx, "d2", "u2"))
	var stored []DailyUsage
	require.NoError(t, json.Unmarshal([]byte(kv.data[dailyUsageKey]), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "u2", stored[0].UserID)
	assert.Equal(t, "2026-08-27", stored[0].Date)
}

func TestUsageStore_DraftRecordsAccumulate(t *testing.T) {
	store := NewUsageStore(newFakeKV())
	clock := &fakeClock{now: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)}
	store.now = clock.Now
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "d1", "u1"))
	clock.Advance(time.Minute)
	require.NoError(t, store.Record(ctx, "d1", "u1"))

	usage := store.ForDraft(ctx, "d1", "u1")
	assert.Equal(t, 2, usage.GenerationCount)
	assert.Equal(t, clock.Now().UnixMilli(), usage.LastGeneratedAt)

	// Same draft ID under another user is a separate record.
	assert.Equal(t, 0, store.ForDraft(ctx, "d1", "u2").GenerationCount)
}

func TestUsageStore_ZeroRecordsForUnknownKeys(t *testing.T) {
	store := NewUsageStore(newFakeKV())
	ctx := context.Background()

	draft := store.ForDraft(ctx, "nope", "u1")
	assert.Equal(t, "nope", draft.DraftID)
	assert.Equal(t, 0, draft.GenerationCount)
	assert.Equal(t, int64(0), draft.LastGeneratedAt)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	kv := NewRedisKV(client)
	ctx := context.Background()

	t.Run("missing key reads as empty", func(t *testing.T) {
		val, err := kv.Read(ctx, "absent")
		require.NoError(t, err)
		assert.Empty(t, val)
	})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, kv.Write(ctx, "k", `[{"a":1}]`))
		val, err := kv.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `[{"a":1}]`, val)
	})
}

func TestUsageStore_WithRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewUsageStore(NewRedisKV(client))
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "d1", "u1"))
	require.NoError(t, store.Record(ctx, "d1", "u1"))

	assert.Equal(t, 2, store.ForDraft(ctx, "d1", "u1").GenerationCount)
	assert.Equal(t, 2, store.ForToday(ctx, "u1").Count)
}
