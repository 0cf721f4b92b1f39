package recurrence

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/cyp0633/libeventcal/event"
)

// Span is the start and end of one expanded occurrence, in epoch milliseconds
type Span struct {
	Start int64
	End   int64
}

// CacheEntry represents a cached expansion
type CacheEntry struct {
	Spans      []Span
	ExpiresAt  time.Time
	AccessedAt time.Time
}

// ExpansionCache memoises expansions of the same rule over the same window
type ExpansionCache struct {
	entries    map[string]*CacheEntry
	mutex      sync.RWMutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// CacheConfig holds configuration for the expansion cache
type CacheConfig struct {
	TTL        time.Duration // How long entries stay valid
	MaxEntries int           // Maximum number of entries before trimming
}

// DefaultCacheConfig provides defaults for expansion caching
var DefaultCacheConfig = CacheConfig{
	TTL:        15 * time.Minute,
	MaxEntries: 1000,
}

// NewExpansionCache creates a new expansion cache with the given configuration
func NewExpansionCache(config CacheConfig) *ExpansionCache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	return &ExpansionCache{
		entries:    make(map[string]*CacheEntry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        time.Now,
	}
}

// cacheKey hashes everything that influences an expansion
func cacheKey(e event.Entry, windowStart, windowEnd int64, limits EngineConfig) string {
	hasher := sha256.New()

	loc := ""
	if e.Location != nil {
		loc = e.Location.String()
	}
	fmt.Fprintf(hasher, "%s\x00%d\x00%d\x00%s\x00%s\x00", e.RecurrenceRule, e.Start, e.End, e.DisplayMode, loc)
	fmt.Fprintf(hasher, "%d\x00%d\x00", windowStart, windowEnd)
	fmt.Fprintf(hasher, "%d\x00%d\x00%d", limits.MaxLookback, limits.MaxOccurrences, limits.MaxIterations)

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a cached expansion if it exists and hasn't expired
func (c *ExpansionCache) Get(key string) ([]Span, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}

	now := c.now()
	if now.After(entry.ExpiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	entry.AccessedAt = now

	return entry.Spans, true
}

// Set stores an expansion in the cache
func (c *ExpansionCache) Set(key string, spans []Span) {
	now := c.now()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = &CacheEntry{
		Spans:      spans,
		ExpiresAt:  now.Add(c.ttl),
		AccessedAt: now,
	}

	if len(c.entries) > c.maxEntries {
		c.cleanup(now)
	}
}

// cleanup removes expired entries, then the least recently used ones while
// over the limit. Callers hold the write lock.
func (c *ExpansionCache) cleanup(now time.Time) {
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyAccess struct {
		key        string
		accessedAt time.Time
	}
	keyAccessList := make([]keyAccess, 0, len(c.entries))
	for key, entry := range c.entries {
		keyAccessList = append(keyAccessList, keyAccess{key: key, accessedAt: entry.AccessedAt})
	}
	slices.SortFunc(keyAccessList, func(a, b keyAccess) int {
		return a.accessedAt.Compare(b.accessedAt)
	})

	for _, ka := range keyAccessList[:len(c.entries)-c.maxEntries] {
		delete(c.entries, ka.key)
	}
}

// Clear drops all entries
func (c *ExpansionCache) Clear() {
	c.mutex.Lock()
	c.entries = make(map[string]*CacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *ExpansionCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := c.now()

	for _, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache usage
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
