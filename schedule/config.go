package schedule

import "time"

// IndefiniteHorizonDays caps how far past the window start a recurring
// timing is expanded when the owning goal has no due date. This ceiling is
// a hard invariant of the engine, not a per-call knob: recurrence is never
// expanded unbounded.
const IndefiniteHorizonDays = 1825 // 5 years

// EngineConfig holds configuration options for the expansion engine
type EngineConfig struct {
	// Location is the reference timezone for day boundaries and slot
	// instants. Nil means time.Local.
	Location *time.Location

	// Cache configuration
	CacheEnabled bool
	CacheConfig  CacheConfig
}

// DefaultEngineConfig provides sensible defaults for production use
var DefaultEngineConfig = EngineConfig{
	Location:     nil, // time.Local
	CacheEnabled: true,
	CacheConfig:  DefaultCacheConfig,
}

// UncachedConfig turns off result caching entirely; every Expand call
// recomputes. Useful in tests and for hosts that memoize themselves.
var UncachedConfig = EngineConfig{
	Location:     nil,
	CacheEnabled: false,
}
