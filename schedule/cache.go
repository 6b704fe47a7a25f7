package schedule

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/yuzuhara/habitsched/store"
)

// cacheEntry represents a cached expansion result
type cacheEntry struct {
	occurrences []Occurrence
	expiresAt   time.Time
	accessedAt  time.Time
}

// ExpansionCache memoizes Expand results keyed by a content hash of the
// habit snapshot, goal due date, window and location. Expansion is a pure
// function of those inputs, so caching never changes observable behavior.
type ExpansionCache struct {
	entries         map[string]*cacheEntry
	mutex           sync.RWMutex
	ttl             time.Duration
	maxEntries      int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

// CacheConfig holds configuration for the expansion cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before cleanup
	CleanupInterval time.Duration // How often to run cleanup
}

// DefaultCacheConfig provides sensible defaults for expansion caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// NewExpansionCache creates a new expansion cache with the given configuration
func NewExpansionCache(config CacheConfig) *ExpansionCache {
	cache := &ExpansionCache{
		entries:         make(map[string]*cacheEntry),
		ttl:             config.TTL,
		maxEntries:      config.MaxEntries,
		cleanupInterval: config.CleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.cleanupLoop()

	return cache
}

// cacheKey hashes every input that can influence an expansion result.
func cacheKey(habit *store.Habit, goal *store.Goal, windowStart, windowEnd time.Time, loc *time.Location) string {
	hasher := sha256.New()

	fmt.Fprintf(hasher, "%s\x00%s\x00%s\x00%s\x00", habit.ID, habit.DueDate, habit.Time, habit.EndTime)
	for _, rec := range habit.Timings {
		fmt.Fprintf(hasher, "%s\x00%s\x00%s\x00%s\x00%s\x1f", rec.Type, rec.Date, rec.Start, rec.End, rec.Cron)
	}
	if goal != nil {
		fmt.Fprintf(hasher, "goal:%s\x00%s\x00", goal.ID, goal.DueDate)
	}
	hasher.Write([]byte(windowStart.Format(time.RFC3339Nano)))
	hasher.Write([]byte(windowEnd.Format(time.RFC3339Nano)))
	hasher.Write([]byte(loc.String()))

	return fmt.Sprintf("%x", hasher.Sum(nil))
}

// Get retrieves a cached expansion if it exists and hasn't expired
func (c *ExpansionCache) Get(habit *store.Habit, goal *store.Goal, windowStart, windowEnd time.Time, loc *time.Location) ([]Occurrence, bool) {
	key := cacheKey(habit, goal, windowStart, windowEnd, loc)

	c.mutex.RLock()
	entry, exists := c.entries[key]
	c.mutex.RUnlock()

	if !exists {
		return nil, false
	}

	now := time.Now()
	if now.After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.entries, key)
		c.mutex.Unlock()
		return nil, false
	}

	c.mutex.Lock()
	entry.accessedAt = now
	c.mutex.Unlock()

	return entry.occurrences, true
}

// Set stores an expansion result in the cache
func (c *ExpansionCache) Set(habit *store.Habit, goal *store.Goal, windowStart, windowEnd time.Time, loc *time.Location, occurrences []Occurrence) {
	key := cacheKey(habit, goal, windowStart, windowEnd, loc)
	now := time.Now()

	entry := &cacheEntry{
		occurrences: occurrences,
		expiresAt:   now.Add(c.ttl),
		accessedAt:  now,
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries[key] = entry

	if len(c.entries) > c.maxEntries {
		c.cleanup()
	}
}

// cleanup removes expired entries and oldest entries if over limit.
// Callers must hold the write lock.
func (c *ExpansionCache) cleanup() {
	now := time.Now()

	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	if len(c.entries) > c.maxEntries {
		type keyAccess struct {
			key        string
			accessedAt time.Time
		}

		var keyAccessList []keyAccess
		for key, entry := range c.entries {
			keyAccessList = append(keyAccessList, keyAccess{key: key, accessedAt: entry.accessedAt})
		}

		// Sort by access time (oldest first)
		for i := 0; i < len(keyAccessList)-1; i++ {
			for j := i + 1; j < len(keyAccessList); j++ {
				if keyAccessList[i].accessedAt.After(keyAccessList[j].accessedAt) {
					keyAccessList[i], keyAccessList[j] = keyAccessList[j], keyAccessList[i]
				}
			}
		}

		entriesToRemove := len(c.entries) - c.maxEntries
		for i := 0; i < entriesToRemove && i < len(keyAccessList); i++ {
			delete(c.entries, keyAccessList[i].key)
		}
	}
}

// cleanupLoop runs periodic cleanup
func (c *ExpansionCache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mutex.Lock()
			c.cleanup()
			c.mutex.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache
func (c *ExpansionCache) Close() {
	close(c.stopCleanup)
	c.mutex.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mutex.Unlock()
}

// Stats returns cache statistics
func (c *ExpansionCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entryCount := len(c.entries)
	expiredCount := 0
	now := time.Now()

	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expiredCount++
		}
	}

	return CacheStats{
		TotalEntries:   entryCount,
		ExpiredEntries: expiredCount,
		ActiveEntries:  entryCount - expiredCount,
	}
}

// CacheStats provides information about cache performance
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
}
