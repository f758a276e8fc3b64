package collector

import (
	"context"
	"time"

	"NewsSentinel/internal/model"
)

// BarFetcher fetches historical bars for one symbol, oldest first.
type BarFetcher interface {
	FetchBars(ctx context.Context, symbol, timeframe string, since time.Time) ([]model.OHLCV, error)
	Name() string
}

// Indicators is the technical read the exit ladder and entry guard consult.
// Implementations never fail: they fall back to neutral values.
type Indicators interface {
	RSI(ctx context.Context, symbol string) float64
	HasVolumeDivergence(ctx context.Context, symbol string) bool
}
