package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidedish/sidedish/internal/metrics"
)

// newTestCache returns a cache with a controllable clock.
func newTestCache(t *testing.T) (*Cache, *time.Time) {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New()
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCache_SetAndGet(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("user:1", "alice")
	v, ok := c.Get("user:1", 30*time.Second)
	require.True(t, ok)
	assert.Equal(t, "alice", v)
}

func TestCache_TTLExpiry(t *testing.T) {
	c, now := newTestCache(t)

	c.Set("user:1", "alice")

	// Just inside the TTL window
	*now = now.Add(29 * time.Second)
	_, ok := c.Get("user:1", 30*time.Second)
	assert.True(t, ok)

	// Past the TTL — miss, and the entry is removed
	*now = now.Add(2 * time.Second)
	_, ok = c.Get("user:1", 30*time.Second)
	assert.False(t, ok)

	// A fresh Set is unaffected by the stale entry
	c.Set("user:1", "bob")
	v, ok := c.Get("user:1", 30*time.Second)
	require.True(t, ok)
	assert.Equal(t, "bob", v)
}

func TestCache_GetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)
	_, ok := c.Get("nope", time.Minute)
	assert.False(t, ok)
}

func TestCache_InvalidateBySubstring(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("user:1", "a")
	c.Set("user:2", "b")
	c.Set("project:1", "c")

	c.Invalidate("user:")

	_, ok := c.Get("user:1", time.Minute)
	assert.False(t, ok)
	_, ok = c.Get("user:2", time.Minute)
	assert.False(t, ok)
	v, ok := c.Get("project:1", time.Minute)
	require.True(t, ok)
	assert.Equal(t, "c", v)
}

func TestCache_InvalidateAll(t *testing.T) {
	c, _ := newTestCache(t)

	c.Set("user:1", "a")
	c.Set("project:1", "c")

	c.Invalidate("")

	_, ok := c.Get("user:1", time.Minute)
	assert.False(t, ok)
	_, ok = c.Get("project:1", time.Minute)
	assert.False(t, ok)
}

func TestCache_FetchCollapsesConcurrentCalls(t *testing.T) {
	c := New()
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	fetcher := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "result", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 2)
	errs := make([]error, 2)

	started := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		close(started)
		results[0], errs[0] = c.Fetch(ctx, "k", fetcher)
	}()
	<-started

	// Wait until the first flight is registered before the second call.
	require.Eventually(t, func() bool {
		c.mu.Lock()
		_, ok := c.pending["k"]
		c.mu.Unlock()
		return ok
	}, time.Second, time.Millisecond)

	shared := testutil.ToFloat64(metrics.DedupSharedTotal)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = c.Fetch(ctx, "k", fetcher)
	}()

	// Release only once the second caller has joined the in-flight fetch,
	// otherwise the first flight can settle before the second call starts.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.DedupSharedTotal) > shared
	}, time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "fetcher must run once")
	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "result", results[i])
	}
}

func TestCache_FetchCleansUpOnError(t *testing.T) {
	c := New()
	ctx := context.Background()

	boom := errors.New("upstream down")
	_, err := c.Fetch(ctx, "k", func(ctx context.Context) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	// The slot is free: a retry invokes the fetcher again.
	v, err := c.Fetch(ctx, "k", func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestCache_FetchHonorsCallerCancellation(t *testing.T) {
	c := New()

	release := make(chan struct{})
	defer close(release)

	go c.Fetch(context.Background(), "k", func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	})

	require.Eventually(t, func() bool {
		c.mu.Lock()
		_, ok := c.pending["k"]
		c.mu.Unlock()
		return ok
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx, "k", func(ctx context.Context) (any, error) {
		t.Fatal("joining caller must not invoke the fetcher")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCache_GetOrFetchPopulatesCache(t *testing.T) {
	c := New()
	ctx := context.Background()

	var calls int32
	fetcher := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "loaded", nil
	}

	v, err := c.GetOrFetch(ctx, "k", time.Minute, fetcher)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)

	// Second call is served from the cache.
	v, err = c.GetOrFetch(ctx, "k", time.Minute, fetcher)
	require.NoError(t, err)
	assert.Equal(t, "loaded", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCache_GetOrFetchDoesNotCacheErrors(t *testing.T) {
	c := New()
	ctx := context.Background()

	_, err := c.GetOrFetch(ctx, "k", time.Minute, func(ctx context.Context) (any, error) {
		return nil, errors.New("nope")
	})
	require.Error(t, err)

	v, err := c.GetOrFetch(ctx, "k", time.Minute, func(ctx context.Context) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}
