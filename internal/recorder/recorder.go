// Package recorder keeps an audit trail of news verdicts, entries and exits.
package recorder

import (
	"time"

	"NewsSentinel/internal/model"
)

// Summary counts recorded activity since a point in time.
type Summary struct {
	Since          time.Time
	NewsSeen       int
	NewsAccepted   int
	EntriesSent    int
	EntriesSkipped int
	Exits          int
	ExitsFailed    int
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordVerdict(v *model.NewsVerdict) error
	RecordEntry(e *model.EntryResult) error
	RecordExit(e *model.ExitEvent) error
	Summary(since time.Time) (Summary, error)
	Close() error
}
