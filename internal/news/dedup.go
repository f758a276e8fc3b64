package news

import (
	"sync"
	"time"
)

type seenEntry struct {
	headline string
	at       time.Time
}

// DedupCache remembers headlines for a sliding window. Entries are kept in
// insertion order, which is also time order, so compaction only pops from the front.
type DedupCache struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
	queue  []seenEntry
}

// NewDedupCache creates a cache that forgets headlines older than window.
// A zero window keeps headlines forever.
func NewDedupCache(window time.Duration) *DedupCache {
	return &DedupCache{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// CheckAndRecord reports whether headline was already seen within the window.
// An unseen headline is recorded at now.
func (c *DedupCache) CheckAndRecord(headline string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.compactLocked(now)
	if _, ok := c.seen[headline]; ok {
		return true
	}
	c.seen[headline] = now
	c.queue = append(c.queue, seenEntry{headline: headline, at: now})
	return false
}

// Compact drops every headline first seen more than window before now and
// returns how many were dropped.
func (c *DedupCache) Compact(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compactLocked(now)
}

func (c *DedupCache) compactLocked(now time.Time) int {
	if c.window <= 0 {
		return 0
	}
	cutoff := now.Add(-c.window)
	n := 0
	for n < len(c.queue) && c.queue[n].at.Before(cutoff) {
		delete(c.seen, c.queue[n].headline)
		n++
	}
	if n > 0 {
		// copy so the backing array does not grow without bound
		c.queue = append([]seenEntry(nil), c.queue[n:]...)
	}
	return n
}

// Len returns the number of remembered headlines.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
