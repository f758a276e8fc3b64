// Package watchlist holds the screened candidate set and the screener that produces it.
package watchlist

import (
	"sort"
	"sync"
	"time"
)

// Watchlist is a concurrency-safe symbol set that is replaced whole on each screen.
type Watchlist struct {
	mu        sync.RWMutex
	symbols   map[string]struct{}
	updatedAt time.Time
}

// New creates an empty watchlist.
func New() *Watchlist {
	return &Watchlist{symbols: make(map[string]struct{})}
}

// Replace swaps in a new symbol set. The previous set is discarded, not merged.
func (w *Watchlist) Replace(symbols []string) {
	next := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		next[s] = struct{}{}
	}
	w.mu.Lock()
	w.symbols = next
	w.updatedAt = time.Now()
	w.mu.Unlock()
}

// Contains reports whether symbol is watchlisted.
func (w *Watchlist) Contains(symbol string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.symbols[symbol]
	return ok
}

// Intersect returns the distinct watchlisted symbols of symbols, in input order.
func (w *Watchlist) Intersect(symbols []string) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []string
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if seen[s] {
			continue
		}
		seen[s] = true
		if _, ok := w.symbols[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of symbols.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.symbols)
}

// Symbols returns a sorted copy of the set.
func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	out := make([]string, 0, len(w.symbols))
	for s := range w.symbols {
		out = append(out, s)
	}
	w.mu.RUnlock()
	sort.Strings(out)
	return out
}

// UpdatedAt returns when the set was last replaced.
func (w *Watchlist) UpdatedAt() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.updatedAt
}
