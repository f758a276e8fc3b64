package recorder

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsSentinel/internal/model"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "nested", "audit.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_Summary(t *testing.T) {
	r := openTestRecorder(t)
	now := time.Now()
	old := now.Add(-48 * time.Hour)

	require.NoError(t, r.RecordVerdict(&model.NewsVerdict{ArticleID: "1", Headline: "a", Symbol: "A", Accepted: true, Stage: "accepted", Timestamp: now}))
	require.NoError(t, r.RecordVerdict(&model.NewsVerdict{ArticleID: "2", Headline: "b", Symbol: "B", Stage: "banned", Timestamp: now}))
	require.NoError(t, r.RecordVerdict(&model.NewsVerdict{ArticleID: "3", Headline: "c", Accepted: true, Timestamp: old}))

	require.NoError(t, r.RecordEntry(&model.EntryResult{Symbol: "A", Outcome: model.EntrySubmitted, OrderID: "o1", Timestamp: now}))
	require.NoError(t, r.RecordEntry(&model.EntryResult{Symbol: "B", Outcome: model.EntrySkipped, RSI: 80, Timestamp: now}))
	require.NoError(t, r.RecordEntry(&model.EntryResult{Symbol: "C", Outcome: model.EntryFailed, Err: errors.New("nope"), Timestamp: now}))

	require.NoError(t, r.RecordExit(&model.ExitEvent{Symbol: "A", Rule: "hard_stop", Reason: "Hard Stop Loss Hit", Fraction: 1, Timestamp: now}))
	require.NoError(t, r.RecordExit(&model.ExitEvent{Symbol: "B", Rule: "tier1", Fraction: 0.5, Err: errors.New("rejected"), Timestamp: now}))

	s, err := r.Summary(now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, s.NewsSeen)
	assert.Equal(t, 1, s.NewsAccepted)
	assert.Equal(t, 1, s.EntriesSent)
	assert.Equal(t, 1, s.EntriesSkipped)
	assert.Equal(t, 2, s.Exits)
	assert.Equal(t, 1, s.ExitsFailed)

	all, err := r.Summary(old.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, all.NewsSeen)
}

func TestSQLiteRecorder_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	r, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.RecordExit(&model.ExitEvent{Symbol: "A", Timestamp: time.Now()}))
	require.NoError(t, r.Close())

	r, err = NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer r.Close()
	s, err := r.Summary(time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Exits)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordVerdict(&model.NewsVerdict{}))
	assert.NoError(t, r.RecordEntry(&model.EntryResult{}))
	assert.NoError(t, r.RecordExit(&model.ExitEvent{}))
	s, err := r.Summary(time.Unix(0, 0))
	require.NoError(t, err)
	assert.Zero(t, s.Exits)
	assert.NoError(t, r.Close())
}
