package recurrence

import (
	"fmt"
	"testing"
	"time"

	"github.com/cyp0633/libeventcal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(cfg CacheConfig) (*ExpansionCache, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewExpansionCache(cfg)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestExpansionCache_GetSet(t *testing.T) {
	c, _ := newTestCache(DefaultCacheConfig)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	spans := []Span{{Start: 1, End: 2}}
	c.Set("k", spans)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, spans, got)
}

func TestExpansionCache_Expiry(t *testing.T) {
	c, now := newTestCache(CacheConfig{TTL: time.Minute, MaxEntries: 10})

	c.Set("k", []Span{})
	*now = now.Add(30 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok)

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, c.Stats().ExpiredEntries)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().TotalEntries)
}

func TestExpansionCache_TrimsLeastRecentlyUsed(t *testing.T) {
	c, now := newTestCache(CacheConfig{TTL: time.Hour, MaxEntries: 3})

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), []Span{{Start: int64(i)}})
		*now = now.Add(time.Second)
	}

	// Touch k0 so k1 becomes the oldest.
	_, ok := c.Get("k0")
	require.True(t, ok)
	*now = now.Add(time.Second)

	c.Set("k3", nil)

	stats := c.Stats()
	assert.Equal(t, 3, stats.TotalEntries)
	_, ok = c.Get("k1")
	assert.False(t, ok)
	_, ok = c.Get("k0")
	assert.True(t, ok)
}

func TestExpansionCache_Clear(t *testing.T) {
	c, _ := newTestCache(DefaultCacheConfig)
	c.Set("a", nil)
	c.Set("b", nil)
	c.Clear()
	assert.Equal(t, CacheStats{}, c.Stats())
}

func TestCacheKey(t *testing.T) {
	base := event.Entry{Start: 1000, End: 2000, RecurrenceRule: "FREQ=DAILY"}
	k := cacheKey(base, 0, 10, DefaultEngineConfig)

	assert.Equal(t, k, cacheKey(base, 0, 10, DefaultEngineConfig))

	other := base
	other.Title = "ignored"
	assert.Equal(t, k, cacheKey(other, 0, 10, DefaultEngineConfig))

	other = base
	other.RecurrenceRule = "FREQ=WEEKLY"
	assert.NotEqual(t, k, cacheKey(other, 0, 10, DefaultEngineConfig))

	other = base
	other.DisplayMode = event.DateOnly
	assert.NotEqual(t, k, cacheKey(other, 0, 10, DefaultEngineConfig))

	assert.NotEqual(t, k, cacheKey(base, 0, 11, DefaultEngineConfig))
	assert.NotEqual(t, k, cacheKey(base, 0, 10, HighPerformanceConfig))
}

func TestEngineConfigPresets(t *testing.T) {
	for name, cfg := range map[string]EngineConfig{
		"default":          DefaultEngineConfig,
		"high performance": HighPerformanceConfig,
		"low memory":       LowMemoryConfig,
		"disabled cache":   DisabledCacheConfig,
	} {
		t.Run(name, func(t *testing.T) {
			e := NewEngineWithConfig(cfg)
			assert.Equal(t, cfg.CacheEnabled, e.cache != nil)
			assert.Positive(t, e.Config().MaxLookback)
			assert.Positive(t, e.Config().MaxIterations)
		})
	}

	e := NewEngineWithConfig(EngineConfig{})
	assert.Equal(t, DefaultEngineConfig.MaxLookback, e.Config().MaxLookback)
	assert.NotNil(t, e.logger)
}
