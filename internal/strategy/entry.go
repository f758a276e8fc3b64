package strategy

// EntryGuard refuses entries into names that are already overbought.
type EntryGuard struct {
	MaxRSI float64
}

// DefaultEntryGuard skips entries above RSI 70.
func DefaultEntryGuard() EntryGuard {
	return EntryGuard{MaxRSI: 70}
}

// Allows reports whether an entry at rsi may proceed. The limit itself is allowed.
func (g EntryGuard) Allows(rsi float64) bool {
	return rsi <= g.MaxRSI
}
