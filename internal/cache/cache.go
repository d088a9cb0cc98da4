// Package cache keeps rendered status API bodies for a few seconds so that
// dashboards polling the bot do not re-encode the snapshot on every request.
package cache

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// TTLStatus bounds how stale a served status snapshot may be.
const TTLStatus = 10 * time.Second

const sweepEvery = time.Minute

type body struct {
	data    []byte
	etag    string
	expires time.Time
}

// Cache maps a response key to its last rendered body. A disabled cache
// still computes ETags but never stores anything.
type Cache struct {
	mu      sync.RWMutex
	bodies  map[string]body
	enabled bool
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	stop     chan struct{}
	stopOnce sync.Once
}

// New returns a cache and, when enabled, starts the expiry sweeper.
// Call Close to stop it.
func New(enabled bool) *Cache {
	c := &Cache{
		bodies:  make(map[string]body),
		enabled: enabled,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if enabled {
		go c.sweeper(sweepEvery)
	}
	return c
}

// Close stops the sweeper. It is safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns the live body stored under key with its ETag.
func (c *Cache) Get(key string) ([]byte, string, bool) {
	if !c.enabled {
		c.misses.Add(1)
		return nil, "", false
	}
	c.mu.RLock()
	b, ok := c.bodies[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(b.expires) {
		c.misses.Add(1)
		return nil, "", false
	}
	c.hits.Add(1)
	return b.data, b.etag, true
}

// Set stores data under key for ttl and returns the ETag it was given.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	c.bodies[key] = body{data: data, etag: etag, expires: c.now().Add(ttl)}
	c.mu.Unlock()
	return etag
}

// Stats is served on /health/cache.
func (c *Cache) Stats() map[string]any {
	now := c.now()
	c.mu.RLock()
	stored, live := len(c.bodies), 0
	for _, b := range c.bodies {
		if now.Before(b.expires) {
			live++
		}
	}
	c.mu.RUnlock()

	return map[string]any{
		"enabled": c.enabled,
		"stored":  stored,
		"live":    live,
		"hits":    c.hits.Load(),
		"misses":  c.misses.Load(),
	}
}

func (c *Cache) sweeper(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-t.C:
			c.sweep()
		}
	}
}

func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, b := range c.bodies {
		if !now.Before(b.expires) {
			delete(c.bodies, key)
		}
	}
}

// ComputeETag derives a weak validator from the first 8 bytes of the body's
// SHA-256.
func ComputeETag(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf(`W/"%x"`, sum[:8])
}

// MatchETag reports whether an If-None-Match header value selects etag.
// The header may list several validators; comparison is weak.
func MatchETag(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}
	return false
}
