// Package cache provides an in-memory TTL cache for categorization results.
// Each process constructs its own instance with an explicit lifecycle:
// create it once, share it, and call Shutdown when done so the background
// sweep goroutine stops. Tests get isolated instances instead of
// process-wide state.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/internal/models"
)

// Default lifecycle settings.
const (
	DefaultTTL           = 5 * time.Minute
	DefaultSweepInterval = 10 * time.Minute
)

type entry struct {
	result    *models.CategorizationResult
	writtenAt time.Time
	ttl       time.Duration
}

func (e entry) expired(now time.Time) bool {
	return now.Sub(e.writtenAt) > e.ttl
}

// ResultCache is a mutex-guarded TTL cache keyed by categorization input.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration

	stop     chan struct{}
	stopOnce sync.Once

	// now is swappable so tests can control expiry without sleeping.
	now func() time.Time
}

// New creates a cache whose entries live for ttl and whose background sweep
// runs every sweepInterval. Non-positive values fall back to the defaults.
func New(ttl, sweepInterval time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	c := &ResultCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		stop:    make(chan struct{}),
		now:     time.Now,
	}

	go c.sweepLoop(sweepInterval)

	return c
}

// Key builds the cache key from the categorization input: an opaque scope
// (session or user), the normalized description, the amount in minor units,
// and the currency code.
func Key(scope, description string, amount int64, currencyCode string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(description)), " ")
	return fmt.Sprintf("%s|%s|%d|%s", scope, normalized, amount, strings.ToUpper(currencyCode))
}

// Get returns the cached result for key, or false when absent or expired.
// Expired entries are removed lazily on the next sweep.
func (c *ResultCache) Get(key string) (*models.CategorizationResult, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || e.expired(c.now()) {
		return nil, false
	}
	return e.result, true
}

// Put stores a result under key with the cache's TTL.
func (c *ResultCache) Put(key string, result *models.CategorizationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		result:    result,
		writtenAt: c.now(),
		ttl:       c.ttl,
	}
}

// Len returns the number of stored entries, including any not yet swept.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Shutdown stops the background sweep. Safe to call more than once.
func (c *ResultCache) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

func (c *ResultCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

// sweep removes expired entries.
func (c *ResultCache) sweep() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}
