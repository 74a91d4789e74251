package proxy

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultCacheTTL bounds how long a generated insight is served from memory
	DefaultCacheTTL = 30 * time.Minute
	// DefaultCacheMaxEntries caps the number of cached insights per process
	DefaultCacheMaxEntries = 100

	generalKey = "general"
)

// CacheKey builds the cache key for an optional object id and a prompt.
// A missing or zero id shares the general bucket.
func CacheKey(objectID, prompt string) string {
	if objectID == "" || objectID == "0" {
		objectID = generalKey
	}
	return objectID + "-" + prompt
}

type entry struct {
	text      string
	createdAt time.Time
}

// Cache is a process-local, time-bounded response cache.
// Lookups use Peek so reads never change eviction order: once the cache is
// full the oldest inserted entry goes first. Expired entries are dropped when
// looked up.
type Cache struct {
	ttl     time.Duration
	now     func() time.Time
	entries *lru.Cache[string, entry]
}

// NewCache creates a cache. Non-positive arguments fall back to the defaults.
func NewCache(ttl time.Duration, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	// lru.New only fails for a non-positive size
	entries, _ := lru.New[string, entry](maxEntries)
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: entries,
	}
}

// Get returns the cached text for key if it is still fresh
func (c *Cache) Get(key string) (string, bool) {
	e, ok := c.entries.Peek(key)
	if !ok {
		return "", false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		c.entries.Remove(key)
		return "", false
	}
	return e.text, true
}

// Set stores text under key as the newest entry, evicting the oldest beyond capacity
func (c *Cache) Set(key, text string) {
	c.entries.Add(key, entry{text: text, createdAt: c.now()})
}

// Len returns the number of entries currently held, fresh or not
func (c *Cache) Len() int {
	return c.entries.Len()
}
