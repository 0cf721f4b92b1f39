package recurrence

import (
	"log/slog"
	"time"
)

// EngineConfig holds configuration options for the recurrence engine
type EngineConfig struct {
	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig

	// Safety bounds
	MaxLookback    int // Iterations allowed while searching the anchor before the window
	MaxOccurrences int // Occurrences emitted per event and window (0 = unlimited)
	MaxIterations  int // Rule dates visited per expansion, across all phases

	Logger *slog.Logger
}

// DefaultEngineConfig is used by NewEngine
var DefaultEngineConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,

	MaxLookback:    1000,
	MaxOccurrences: 1000,
	MaxIterations:  100000,
}

// HighPerformanceConfig trades completeness for latency on busy hosts
var HighPerformanceConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:        30 * time.Minute,
		MaxEntries: 5000,
	},

	MaxLookback:    1000,
	MaxOccurrences: 250,
	MaxIterations:  20000,
}

// LowMemoryConfig keeps the cache small
var LowMemoryConfig = EngineConfig{
	CacheEnabled: true,
	CacheConfig: CacheConfig{
		TTL:        5 * time.Minute,
		MaxEntries: 100,
	},

	MaxLookback:    1000,
	MaxOccurrences: 1000,
	MaxIterations:  100000,
}

// DisabledCacheConfig turns off caching entirely
var DisabledCacheConfig = EngineConfig{
	CacheEnabled: false,

	MaxLookback:    1000,
	MaxOccurrences: 1000,
	MaxIterations:  100000,
}

// NewEngineWithConfig creates a new recurrence engine with custom configuration
func NewEngineWithConfig(config EngineConfig) *Engine {
	var cache *ExpansionCache
	if config.CacheEnabled {
		cache = NewExpansionCache(config.CacheConfig)
	}
	if config.MaxLookback <= 0 {
		config.MaxLookback = DefaultEngineConfig.MaxLookback
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultEngineConfig.MaxIterations
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		cache:  cache,
		config: config,
		logger: logger,
	}
}
