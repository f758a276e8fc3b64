// Package collector turns fetched bars into the indicator reads used by trading rules.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"NewsSentinel/internal/calculator"
	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/model"
)

// NeutralRSI is reported whenever RSI cannot be computed.
const NeutralRSI = 50.0

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Bars  map[string][]model.OHLCV
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol, _ string, _ time.Time) ([]model.OHLCV, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Bars[symbol], nil
}

// RisingBars generates count bars climbing from base by step, one minute apart.
func RisingBars(base, step float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().Add(-time.Duration(count) * time.Minute)
	for i := 0; i < count; i++ {
		p := base + float64(i)*step
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   p,
			High:   p * 1.001,
			Low:    p * 0.999,
			Close:  p,
			Volume: 10000,
		}
	}
	return bars
}

// Collector implements Indicators over a BarFetcher.
type Collector struct {
	Fetcher   BarFetcher
	RSIPeriod int
	Timeframe string
	Lookback  time.Duration
	Timeout   time.Duration
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewCollector creates a Collector with 14-period RSI over 1-minute bars.
func NewCollector(fetcher BarFetcher, logger zerolog.Logger) *Collector {
	return &Collector{
		Fetcher:   fetcher,
		RSIPeriod: 14,
		Timeframe: "1Min",
		Lookback:  48 * time.Hour,
		Timeout:   15 * time.Second,
		Logger:    logger,
		Now:       time.Now,
	}
}

// RSI returns the latest RSI of symbol, or NeutralRSI if bars are unavailable.
func (c *Collector) RSI(ctx context.Context, symbol string) float64 {
	bars, err := c.bars(ctx, symbol)
	if err != nil {
		c.Logger.Warn().Err(err).Str("symbol", symbol).Msg("RSI bars unavailable, defaulting to 50")
		return NeutralRSI
	}
	rsi, err := calculator.CalculateRSI(bars, c.RSIPeriod)
	if err != nil {
		c.Logger.Warn().Err(err).Str("symbol", symbol).Int("bars", len(bars)).Msg("RSI calculation failed, defaulting to 50")
		return NeutralRSI
	}
	return rsi
}

// HasVolumeDivergence reports price rising on falling volume over the last two bars.
// Any fetch failure reads as no divergence.
func (c *Collector) HasVolumeDivergence(ctx context.Context, symbol string) bool {
	bars, err := c.bars(ctx, symbol)
	if err != nil {
		c.Logger.Warn().Err(err).Str("symbol", symbol).Msg("divergence bars unavailable")
		return false
	}
	return calculator.VolumeDivergence(bars)
}

func (c *Collector) bars(ctx context.Context, symbol string) ([]model.OHLCV, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	since := c.Now().Add(-c.Lookback)
	bars, err := c.Fetcher.FetchBars(ctx, symbol, c.Timeframe, since)
	if err != nil {
		return nil, fmt.Errorf("%s bars: %w", c.Fetcher.Name(), apperr.Timeout(err))
	}
	if len(bars) == 0 {
		return nil, apperr.ErrNoData
	}
	return bars, nil
}
