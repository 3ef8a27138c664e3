// Package cache holds the process-local store of today's readings.
package cache

import (
	"sync"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
)

// HoroscopeCache maps (userID, date) to a reading. Entries never expire on
// their own; the maintenance job clears the whole cache once a day.
// The zero value is ready to use.
type HoroscopeCache struct {
	mu      sync.RWMutex
	entries map[string]domain.Reading
}

// NewHoroscopeCache returns an empty cache.
func NewHoroscopeCache() *HoroscopeCache {
	return &HoroscopeCache{entries: make(map[string]domain.Reading)}
}

// Key is the composite cache key for a user and calendar day.
func Key(userID, date string) string { return userID + "-" + date }

// Get returns the cached reading, if any. A miss is not an error.
func (c *HoroscopeCache) Get(userID, date string) (domain.Reading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[Key(userID, date)]
	return r, ok
}

// Put stores r, replacing any previous entry for the same key.
func (c *HoroscopeCache) Put(userID, date string, r domain.Reading) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]domain.Reading)
	}
	c.entries[Key(userID, date)] = r
}

// Clear drops every entry and returns how many there were.
func (c *HoroscopeCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]domain.Reading)
	return n
}

// Len returns the number of cached readings.
func (c *HoroscopeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
