// Package cache keeps recent extraction responses in memory so repeat
// requests inside a caller-chosen window skip the network entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/use-agent/qrawl/models"
)

const (
	sweepInterval = 5 * time.Minute
	entryTTL      = time.Hour
)

type entry struct {
	response  *models.ExtractResponse
	createdAt time.Time
}

// Cache is an in-memory response cache, safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*entry
	maxEntries int
}

// New builds a cache holding at most maxEntries responses. A background
// sweeper drops entries older than an hour every five minutes.
func New(maxEntries int) *Cache {
	c := &Cache{
		entries:    make(map[string]*entry),
		maxEntries: maxEntries,
	}
	go c.sweep()
	return c
}

// Key derives the cache key for a URL extracted in the given mode
// (known, unknown, or auto). The mode is part of the key: the same URL
// yields different results under different policy paths.
func Key(url, mode string) string {
	h := sha256.New()
	h.Write([]byte(url))
	h.Write([]byte("|"))
	h.Write([]byte(mode))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response when it is younger than maxAgeMS
// milliseconds. maxAgeMS <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAgeMS int64) (*models.ExtractResponse, bool) {
	if maxAgeMS <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Since(e.createdAt) > time.Duration(maxAgeMS)*time.Millisecond {
		return nil, false
	}
	return e.response, true
}

// Set stores a response. At capacity one arbitrary entry is evicted
// first; Go's random map iteration order makes the pick cheap.
func (c *Cache) Set(key string, resp *models.ExtractResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = &entry{response: resp, createdAt: time.Now()}
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-entryTTL)
		c.mu.Lock()
		for k, e := range c.entries {
			if e.createdAt.Before(cutoff) {
				delete(c.entries, k)
			}
		}
		c.mu.Unlock()
	}
}
