package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/model"
)

type fakeData struct {
	mu        sync.Mutex
	universe  []model.UniverseAsset
	snaps     map[string]model.Snapshot
	failChunk map[string]bool // fail any chunk containing this symbol
	hang      map[string]bool // block until the call's deadline
	hangAll   bool
	calls     int
}

func (f *fakeData) Universe(ctx context.Context) ([]model.UniverseAsset, error) {
	if f.hangAll {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.universe, nil
}

func (f *fakeData) Snapshots(ctx context.Context, symbols []string) (map[string]model.Snapshot, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	out := make(map[string]model.Snapshot)
	for _, s := range symbols {
		if f.hang[s] {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		if f.failChunk[s] {
			return nil, errors.New("snapshot endpoint down")
		}
		if snap, ok := f.snaps[s]; ok {
			out[s] = snap
		}
	}
	return out, nil
}

func snap(symbol, price string, volume int64) model.Snapshot {
	return model.Snapshot{
		Symbol:      symbol,
		LastPrice:   decimal.RequireFromString(price),
		HasTrade:    true,
		DayVolume:   volume,
		HasDailyBar: true,
	}
}

func TestCriteria_Boundaries(t *testing.T) {
	c := DefaultCriteria()
	tests := []struct {
		price  string
		volume int64
		want   bool
	}{
		{"2.00", 500000, true},
		{"1.99", 500000, false},
		{"20.00", 500000, true},
		{"20.01", 500000, false},
		{"10.00", 100000, false},
		{"10.00", 100001, true},
		{"10.00", 99999, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.price, tt.volume), func(t *testing.T) {
			assert.Equal(t, tt.want, c.Admits(decimal.RequireFromString(tt.price), tt.volume))
		})
	}
}

func TestProperty_CriteriaMatchesRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())
	properties := gopter.NewProperties(parameters)

	c := DefaultCriteria()
	properties.Property("admitted iff 2 <= price <= 20 and volume > 100000", prop.ForAll(
		func(cents int64, volume int64) bool {
			price := decimal.New(cents, -2)
			want := cents >= 200 && cents <= 2000 && volume > 100000
			return c.Admits(price, volume) == want
		},
		gen.Int64Range(0, 5000),
		gen.Int64Range(0, 300000),
	))

	properties.TestingRun(t)
}

func TestScreener_Run(t *testing.T) {
	data := &fakeData{
		universe: []model.UniverseAsset{
			{Symbol: "GOOD", Exchange: "NASDAQ", Tradable: true, Marginable: true},
			{Symbol: "CHEAP", Tradable: true, Marginable: true},
			{Symbol: "THIN", Tradable: true, Marginable: true},
			{Symbol: "NOMARGIN", Tradable: true, Marginable: false},
			{Symbol: "NOTRADE", Tradable: false, Marginable: true},
			{Symbol: "NOBAR", Tradable: true, Marginable: true},
			{Symbol: "EDGE", Tradable: true, Marginable: true},
		},
		snaps: map[string]model.Snapshot{
			"GOOD":     snap("GOOD", "10.00", 500000),
			"CHEAP":    snap("CHEAP", "1.50", 500000),
			"THIN":     snap("THIN", "5.00", 100000),
			"NOMARGIN": snap("NOMARGIN", "5.00", 500000),
			"NOTRADE":  snap("NOTRADE", "5.00", 500000),
			"NOBAR":    {Symbol: "NOBAR", LastPrice: decimal.NewFromInt(5), HasTrade: true},
			"EDGE":     snap("EDGE", "20.00", 100001),
		},
	}
	s := NewScreener(data, DefaultCriteria(), zerolog.Nop())
	s.ChunkSize = 2

	assets, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EDGE", "GOOD"}, Symbols(assets))
	assert.Equal(t, "NASDAQ", assets[1].Exchange)
	assert.Equal(t, "Unknown", assets[0].Exchange)
	assert.Equal(t, 3, data.calls)
}

func TestScreener_FailedChunkIsSkipped(t *testing.T) {
	data := &fakeData{
		universe: []model.UniverseAsset{
			{Symbol: "A", Tradable: true, Marginable: true},
			{Symbol: "B", Tradable: true, Marginable: true},
		},
		snaps: map[string]model.Snapshot{
			"A": snap("A", "5", 200000),
			"B": snap("B", "5", 200000),
		},
		failChunk: map[string]bool{"A": true},
	}
	s := NewScreener(data, DefaultCriteria(), zerolog.Nop())
	s.ChunkSize = 1

	assets, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, Symbols(assets))
}

func TestScreener_UniverseTimeout(t *testing.T) {
	s := NewScreener(&fakeData{hangAll: true}, DefaultCriteria(), zerolog.Nop())
	s.CallTimeout = 20 * time.Millisecond

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTimeout)
}

func TestScreener_SlowChunkTimesOut(t *testing.T) {
	data := &fakeData{
		universe: []model.UniverseAsset{
			{Symbol: "A", Tradable: true, Marginable: true},
			{Symbol: "B", Tradable: true, Marginable: true},
		},
		snaps: map[string]model.Snapshot{
			"A": snap("A", "5", 200000),
			"B": snap("B", "5", 200000),
		},
		hang: map[string]bool{"A": true},
	}
	s := NewScreener(data, DefaultCriteria(), zerolog.Nop())
	s.ChunkSize = 1
	s.CallTimeout = 20 * time.Millisecond

	assets, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, Symbols(assets))
}

func TestWatchlist_ReplaceNotMerge(t *testing.T) {
	w := New()
	w.Replace([]string{"A", "B"})
	w.Replace([]string{"C"})

	assert.False(t, w.Contains("A"))
	assert.True(t, w.Contains("C"))
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, []string{"C"}, w.Symbols())
}

func TestWatchlist_Intersect(t *testing.T) {
	w := New()
	w.Replace([]string{"A", "B", "C"})

	assert.Equal(t, []string{"B", "A"}, w.Intersect([]string{"B", "X", "A", "B"}))
	assert.Empty(t, w.Intersect([]string{"X", "Y"}))
}
