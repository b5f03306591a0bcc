package intent

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	defaultCacheCounters = 1e5
	defaultCacheMaxCost  = 10000 // entries
	defaultCacheBuffer   = 64
	defaultCacheTTL      = 10 * time.Minute
	resultCost           = 1
)

// CacheConfig configures a CachedClassifier. Every result costs 1, so
// MaxCost is the number of entries kept.
type CacheConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration
}

// CacheStats is a snapshot of cache effectiveness
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// CachedClassifier memoises classification results keyed by the lowercased
// input. Results are identical to the wrapped classifier's.
type CachedClassifier struct {
	inner *Classifier
	cache *ristretto.Cache
	ttl   time.Duration

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// NewCachedClassifier wraps inner with a ristretto cache
func NewCachedClassifier(inner *Classifier, config *CacheConfig) (*CachedClassifier, error) {
	cfg := applyCacheDefaults(config)

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        cfg.NumCounters,
		MaxCost:            cfg.MaxCost,
		BufferItems:        cfg.BufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}

	if inner == nil {
		inner = NewClassifier(nil)
	}

	return &CachedClassifier{
		inner: inner,
		cache: cache,
		ttl:   cfg.TTL,
	}, nil
}

func applyCacheDefaults(config *CacheConfig) CacheConfig {
	cfg := CacheConfig{
		NumCounters: defaultCacheCounters,
		MaxCost:     defaultCacheMaxCost,
		BufferItems: defaultCacheBuffer,
		TTL:         defaultCacheTTL,
	}
	if config == nil {
		return cfg
	}
	if config.NumCounters > 0 {
		cfg.NumCounters = config.NumCounters
	}
	if config.MaxCost > 0 {
		cfg.MaxCost = config.MaxCost
	}
	if config.BufferItems > 0 {
		cfg.BufferItems = config.BufferItems
	}
	if config.TTL > 0 {
		cfg.TTL = config.TTL
	}
	return cfg
}

// Classify returns the cached result for text or classifies and caches it
func (c *CachedClassifier) Classify(text string) Result {
	key := strings.ToLower(text)

	if c.isClosed() {
		return c.inner.Classify(text)
	}

	if v, found := c.cache.Get(key); found {
		if r, ok := v.(Result); ok {
			c.hits.Add(1)
			return r
		}
	}
	c.misses.Add(1)

	result := c.inner.Classify(text)
	if c.cache.SetWithTTL(key, result, resultCost, c.ttl) {
		c.sets.Add(1)
	}
	return result
}

// Wait blocks until pending cache writes are applied
func (c *CachedClassifier) Wait() {
	if !c.isClosed() {
		c.cache.Wait()
	}
}

// Stats returns a snapshot of hit/miss counters
func (c *CachedClassifier) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
	}
}

// Close releases the cache. Classify keeps working uncached afterwards.
func (c *CachedClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cache.Close()
}

func (c *CachedClassifier) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
