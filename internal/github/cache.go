package github

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"coderefs/internal/logging"
	"coderefs/internal/storage"
)

// DefaultCacheTTL is how long a persisted commit listing stays fresh.
const DefaultCacheTTL = 24 * time.Hour

// CommitCache holds raw commit listings keyed by history URL: an in-memory
// LRU in front of an optional persistent store.
type CommitCache struct {
	mem    *lru.Cache[string, []byte]
	store  *storage.Cache
	ttl    time.Duration
	logger *logging.Logger
}

// NewCommitCache creates a cache. store may be nil for memory only.
func NewCommitCache(size int, store *storage.Cache, ttl time.Duration, logger *logging.Logger) (*CommitCache, error) {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	mem, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CommitCache{mem: mem, store: store, ttl: ttl, logger: logger}, nil
}

// Get returns a cached listing.
func (c *CommitCache) Get(key string) ([]byte, bool) {
	if data, ok := c.mem.Get(key); ok {
		return data, true
	}
	if c.store == nil {
		return nil, false
	}

	data, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Debug("Commit cache read failed", map[string]interface{}{
			logging.FieldDetail: err.Error(),
			logging.FieldItem:   key,
		})
		return nil, false
	}
	if ok {
		c.mem.Add(key, data)
	}
	return data, ok
}

// Set stores a listing in memory and, if configured, on disk.
func (c *CommitCache) Set(key string, data []byte) {
	c.mem.Add(key, data)
	if c.store == nil {
		return
	}
	if err := c.store.Set(key, data, c.ttl); err != nil {
		c.logger.Debug("Commit cache write failed", map[string]interface{}{
			logging.FieldDetail: err.Error(),
			logging.FieldItem:   key,
		})
	}
}

// GetOrFetch returns the cached listing for key, calling fetch and caching
// its result on a miss. Fetch errors are not cached.
func (c *CommitCache) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(key); ok {
		return data, nil
	}
	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.Set(key, data)
	return data, nil
}

// Len returns the number of in-memory entries.
func (c *CommitCache) Len() int {
	return c.mem.Len()
}
