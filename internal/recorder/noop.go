package recorder

import (
	"time"

	"NewsSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordVerdict(_ *model.NewsVerdict) error { return nil }
func (n *NoopRecorder) RecordEntry(_ *model.EntryResult) error   { return nil }
func (n *NoopRecorder) RecordExit(_ *model.ExitEvent) error      { return nil }
func (n *NoopRecorder) Close() error                             { return nil }

func (n *NoopRecorder) Summary(since time.Time) (Summary, error) {
	return Summary{Since: since}, nil
}
