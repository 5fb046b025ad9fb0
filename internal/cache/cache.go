package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sidedish/sidedish/internal/metrics"
)

// TTLs by resource class. Profiles change rarely; AI usage counters change
// on every generation but polling them per request is wasteful.
const (
	TTLDefault = 30 * time.Second
	TTLProfile = 5 * time.Minute
	TTLUsage   = time.Minute
)

type entry struct {
	data      any
	timestamp time.Time
}

// flight is one in-flight fetch shared by every caller asking for the same key.
type flight struct {
	done chan struct{}
	val  any
	err  error
}

// Cache is a process-local read cache with in-flight request deduplication.
// Entries are evicted lazily on read; there is no background sweep (keys are
// finite and reused, so stale entries are bounded). One instance is
// constructed in main and injected into the read services.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	pending map[string]*flight
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		pending: make(map[string]*flight),
		now:     time.Now,
	}
}

// Get returns the value stored under key if it is younger than ttl.
// An expired entry is deleted and reported as a miss.
func (c *Cache) Get(key string, ttl time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		metrics.CacheRequestsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	if c.now().Sub(e.timestamp) >= ttl {
		delete(c.entries, key)
		metrics.CacheRequestsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}

	metrics.CacheRequestsTotal.WithLabelValues("hit").Inc()
	return e.data, true
}

// Set unconditionally overwrites the entry for key.
func (c *Cache) Set(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, timestamp: c.now()}
}

// Invalidate removes every entry whose key contains pattern as a plain
// substring. An empty pattern clears the whole cache. Mutations call this
// with the prefix of the keys they touched (e.g. "user:42").
func (c *Cache) Invalidate(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pattern == "" {
		c.entries = make(map[string]entry)
		return
	}
	for k := range c.entries {
		if strings.Contains(k, pattern) {
			delete(c.entries, k)
		}
	}
}

// Fetch runs fetcher for key, collapsing concurrent calls for the same key
// into a single invocation whose result (value or error) every caller
// shares. The flight is registered before fetcher runs and removed when it
// settles, so the key is always free for the next independent call.
func (c *Cache) Fetch(ctx context.Context, key string, fetcher func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if f, ok := c.pending[key]; ok {
		c.mu.Unlock()
		metrics.DedupSharedTotal.Inc()
		select {
		case <-f.done:
			return f.val, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	c.pending[key] = f
	c.mu.Unlock()

	f.val, f.err = fetcher(ctx)

	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
	close(f.done)

	return f.val, f.err
}

// GetOrFetch is the composition the read services use: cache check, then a
// deduplicated fetch that populates the cache on success. At most one
// underlying load runs per key per concurrent burst, and the cache is
// written exactly once per successful load.
func (c *Cache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetcher func(context.Context) (any, error)) (any, error) {
	if v, ok := c.Get(key, ttl); ok {
		return v, nil
	}
	return c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fetcher(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
}
