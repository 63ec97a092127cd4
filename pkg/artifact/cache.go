package artifact

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Loader is the storage surface the cache loads triples through.
// *Store implements it; tests substitute counting fakes.
type Loader interface {
	Load(k Key) (*Triple, error)
	List() ([]Key, error)
}

// Cache is the in-memory artifact cache shared by all inference requests.
//
// Each key is loaded from the store at most once per process lifetime:
// hits never touch storage, and concurrent misses for the same key are
// coalesced into a single load through singleflight. A failed load caches
// nothing, so the next request retries the store. There is deliberately no
// eviction, TTL, or size bound; the artifact set is small and stable per
// process, and a retrained triple on disk becomes visible only on restart.
type Cache struct {
	store  Loader
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[Key]*Triple
	group   singleflight.Group

	hits       atomic.Int64
	misses     atomic.Int64
	loadErrors atomic.Int64
}

// NewCache creates an empty cache backed by store.
func NewCache(store Loader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:   store,
		logger:  logger,
		entries: make(map[Key]*Triple),
	}
}

// GetOrLoad returns the cached triple for key, loading it from the store on
// first use. The returned error, if any, names the artifact that failed to
// load; in that case nothing is inserted into the cache.
func (c *Cache) GetOrLoad(ctx context.Context, k Key) (*Triple, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	t, ok := c.entries[k]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return t, nil
	}

	c.misses.Add(1)

	v, err, _ := c.group.Do(k.String(), func() (any, error) {
		// Re-check under the flight: a concurrent load may have finished
		// between the read above and entering the group.
		c.mu.RLock()
		t, ok := c.entries[k]
		c.mu.RUnlock()
		if ok {
			return t, nil
		}

		t, loadErr := c.store.Load(k)
		if loadErr != nil {
			c.loadErrors.Add(1)
			return nil, loadErr
		}

		c.mu.Lock()
		c.entries[k] = t
		c.mu.Unlock()

		c.logger.Info("loaded artifacts",
			"symbol", k.Symbol,
			"window_size", k.WindowSize,
			"forecast_size", k.ForecastSize,
		)
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Triple), nil
}

// Contains reports whether key is currently cached. Primarily for tests.
func (c *Cache) Contains(k Key) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[k]
	return ok
}

// Len returns the number of cached triples.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports cumulative hit, miss, and load-error counts for metrics.
func (c *Cache) Stats() (hits, misses, loadErrors int64) {
	return c.hits.Load(), c.misses.Load(), c.loadErrors.Load()
}

// Preload sweeps the store for every on-disk triple and loads each distinct
// key once. Keys that fail to load are logged and skipped; the sweep only
// fails if the directory itself cannot be enumerated.
func (c *Cache) Preload(ctx context.Context) (int, error) {
	keys, err := c.store.List()
	if err != nil {
		return 0, err
	}

	loaded := 0
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		if _, err := c.GetOrLoad(ctx, k); err != nil {
			c.logger.Warn("preload skipped key",
				"symbol", k.Symbol,
				"window_size", k.WindowSize,
				"forecast_size", k.ForecastSize,
				"error", err,
			)
			continue
		}
		loaded++
	}

	return loaded, nil
}
