package signal

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsSentinel/internal/model"
	"NewsSentinel/internal/watchlist"
)

type fakeIndicators map[string]float64

func (f fakeIndicators) RSI(_ context.Context, symbol string) float64 {
	if v, ok := f[symbol]; ok {
		return v
	}
	return 50
}

func (f fakeIndicators) HasVolumeDivergence(context.Context, string) bool { return false }

type opened struct {
	symbol   string
	notional float64
}

type fakeOpener struct {
	calls []opened
	err   error
}

func (f *fakeOpener) OpenPosition(_ context.Context, symbol string, notional float64) (model.Order, error) {
	f.calls = append(f.calls, opened{symbol, notional})
	if f.err != nil {
		return model.Order{}, f.err
	}
	return model.Order{ID: "o-" + symbol, Symbol: symbol, Side: model.SideBuy}, nil
}

func newWatchlist(symbols ...string) *watchlist.Watchlist {
	w := watchlist.New()
	w.Replace(symbols)
	return w
}

func article(symbols ...string) model.NewsArticle {
	return model.NewsArticle{Headline: "ABCD awarded federal contract", Symbols: symbols}
}

func TestRoute_EntersWatchlistedSymbol(t *testing.T) {
	op := &fakeOpener{}
	r := NewRouter(newWatchlist("ABCD"), fakeIndicators{"ABCD": 55}, op, Options{}, zerolog.Nop())

	results := r.Route(context.Background(), article("ABCD"))
	require.Len(t, results, 1)
	assert.Equal(t, model.EntrySubmitted, results[0].Outcome)
	assert.Equal(t, "o-ABCD", results[0].OrderID)
	assert.Equal(t, 55.0, results[0].RSI)
	assert.Equal(t, []opened{{"ABCD", 1000}}, op.calls)
}

func TestRoute_RSIGuard(t *testing.T) {
	tests := []struct {
		rsi  float64
		want model.EntryOutcome
	}{
		{69.9, model.EntrySubmitted},
		{70, model.EntrySubmitted},
		{70.1, model.EntrySkipped},
		{95, model.EntrySkipped},
	}
	for _, tt := range tests {
		op := &fakeOpener{}
		r := NewRouter(newWatchlist("ABCD"), fakeIndicators{"ABCD": tt.rsi}, op, Options{}, zerolog.Nop())
		results := r.Route(context.Background(), article("ABCD"))
		require.Len(t, results, 1)
		assert.Equal(t, tt.want, results[0].Outcome, "rsi %.1f", tt.rsi)
		if tt.want == model.EntrySkipped {
			assert.Empty(t, op.calls)
		}
	}
}

func TestRoute_EachSymbolIndependently(t *testing.T) {
	op := &fakeOpener{}
	ind := fakeIndicators{"AAAA": 40, "BBBB": 80, "CCCC": 60}
	r := NewRouter(newWatchlist("AAAA", "BBBB", "CCCC"), ind, op, Options{Notional: 500}, zerolog.Nop())

	results := r.Route(context.Background(), article("AAAA", "BBBB", "ZZZZ", "CCCC", "AAAA"))
	require.Len(t, results, 3)
	assert.Equal(t, "AAAA", results[0].Symbol)
	assert.Equal(t, model.EntrySkipped, results[1].Outcome)
	assert.Equal(t, "CCCC", results[2].Symbol)
	assert.Equal(t, []opened{{"AAAA", 500}, {"CCCC", 500}}, op.calls)
}

func TestRoute_NotOnWatchlist(t *testing.T) {
	op := &fakeOpener{}
	r := NewRouter(newWatchlist("ABCD"), fakeIndicators{}, op, Options{}, zerolog.Nop())

	assert.Empty(t, r.Route(context.Background(), article("WXYZ")))
	assert.Empty(t, r.Route(context.Background(), article()))
	assert.Empty(t, op.calls)
}

func TestRoute_OrderFailure(t *testing.T) {
	op := &fakeOpener{err: errors.New("insufficient buying power")}
	r := NewRouter(newWatchlist("AAAA", "BBBB"), fakeIndicators{}, op, Options{}, zerolog.Nop())

	results := r.Route(context.Background(), article("AAAA", "BBBB"))
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, model.EntryFailed, res.Outcome)
		assert.Error(t, res.Err)
	}
	assert.Len(t, op.calls, 2)
}
