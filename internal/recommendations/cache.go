package recommendations

import (
	"context"
	"errors"
	"time"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/shared/storage/kv"
	"compliance-backend/internal/shared/telemetry"
)

const cachePrefix = "recommendation-cache:"

// DefaultCacheTTL is how long a cached recommendation set is served.
const DefaultCacheTTL = time.Hour

// CacheEntry is the stored form of a recommendation set.
type CacheEntry struct {
	Hash      string                      `json:"hash"`
	Payload   []compliance.Recommendation `json:"payload"`
	Source    Source                      `json:"source"`
	Timestamp time.Time                   `json:"timestamp"`
}

// Cache stores recommendation sets by fingerprint with a TTL.
type Cache struct {
	store kv.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewCache constructs a Cache. A non-positive ttl uses DefaultCacheTTL; a nil now uses time.Now.
func NewCache(store kv.Store, ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{store: store, ttl: ttl, now: now}
}

// Get returns the entry for hash while now-timestamp < ttl. Expired entries
// are deleted before returning a miss. Store errors are treated as misses.
func (c *Cache) Get(ctx context.Context, hash string) (CacheEntry, bool) {
	key := cachePrefix + hash
	entry, err := kv.GetJSON[CacheEntry](ctx, c.store, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			telemetry.Warn("recommendations.cache.read_failed", map[string]any{"fingerprint": hash, "error": err})
		}
		return CacheEntry{}, false
	}
	if c.now().Sub(entry.Timestamp) >= c.ttl {
		if err := c.store.Delete(ctx, key); err != nil {
			telemetry.Warn("recommendations.cache.evict_failed", map[string]any{"fingerprint": hash, "error": err})
		}
		telemetry.Info("recommendations.cache.expired", map[string]any{"fingerprint": hash})
		return CacheEntry{}, false
	}
	return entry, true
}

// Set stores recs under hash stamped with the current time.
func (c *Cache) Set(ctx context.Context, hash string, source Source, recs []compliance.Recommendation) error {
	return kv.PutJSON(ctx, c.store, cachePrefix+hash, CacheEntry{
		Hash:      hash,
		Payload:   recs,
		Source:    source,
		Timestamp: c.now().UTC(),
	})
}
