package watchlist

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/model"
)

// MarketData is what the screener needs from the data provider.
type MarketData interface {
	Universe(ctx context.Context) ([]model.UniverseAsset, error)
	Snapshots(ctx context.Context, symbols []string) (map[string]model.Snapshot, error)
}

// Criteria is the level-1 price and liquidity filter.
type Criteria struct {
	MinPrice  decimal.Decimal
	MaxPrice  decimal.Decimal
	MinVolume int64
}

// DefaultCriteria admits names priced $2 to $20 trading more than 100k shares.
func DefaultCriteria() Criteria {
	return Criteria{
		MinPrice:  decimal.NewFromFloat(2.0),
		MaxPrice:  decimal.NewFromFloat(20.0),
		MinVolume: 100000,
	}
}

// Admits reports whether price and volume pass: MinPrice <= price <= MaxPrice and volume > MinVolume.
func (c Criteria) Admits(price decimal.Decimal, volume int64) bool {
	return price.GreaterThanOrEqual(c.MinPrice) &&
		price.LessThanOrEqual(c.MaxPrice) &&
		volume > c.MinVolume
}

// Screener filters the tradable universe down to watchlist candidates.
type Screener struct {
	Data        MarketData
	Criteria    Criteria
	ChunkSize   int
	Workers     int
	CallTimeout time.Duration
	Logger      zerolog.Logger
}

// NewScreener creates a screener with default chunking.
func NewScreener(data MarketData, criteria Criteria, logger zerolog.Logger) *Screener {
	return &Screener{
		Data:        data,
		Criteria:    criteria,
		ChunkSize:   500,
		Workers:     4,
		CallTimeout: 15 * time.Second,
		Logger:      logger,
	}
}

// Run fetches the universe, keeps tradable and marginable symbols, and applies the
// price/volume filter over snapshot chunks. A failed chunk is logged and skipped.
func (s *Screener) Run(ctx context.Context) ([]model.Asset, error) {
	s.Logger.Info().Msg("starting market screen")

	uctx, cancel := s.call(ctx)
	universe, err := s.Data.Universe(uctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch universe: %w", apperr.Timeout(err))
	}
	exchanges := make(map[string]string, len(universe))
	var symbols []string
	for _, a := range universe {
		if a.Tradable && a.Marginable {
			symbols = append(symbols, a.Symbol)
			exchanges[a.Symbol] = a.Exchange
		}
	}
	s.Logger.Info().Int("count", len(symbols)).Msg("universe size")

	chunkSize := s.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 500
	}

	var (
		mu         sync.Mutex
		candidates []model.Asset
	)
	g, gctx := errgroup.WithContext(ctx)
	if s.Workers > 0 {
		g.SetLimit(s.Workers)
	}
	for i := 0; i < len(symbols); i += chunkSize {
		end := i + chunkSize
		if end > len(symbols) {
			end = len(symbols)
		}
		chunk := symbols[i:end]
		chunkIndex := i
		g.Go(func() error {
			cctx, cancel := s.call(gctx)
			snaps, err := s.Data.Snapshots(cctx, chunk)
			cancel()
			if err != nil {
				s.Logger.Error().Err(apperr.Timeout(err)).Int("chunk_index", chunkIndex).Msg("error processing chunk")
				return nil
			}
			admitted := s.filter(snaps, exchanges)
			mu.Lock()
			candidates = append(candidates, admitted...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Symbol < candidates[j].Symbol })
	s.Logger.Info().Int("count", len(candidates)).Msg("candidates after price/volume filter")

	final := filterByMarketCap(candidates)
	s.Logger.Info().Int("count", len(final)).Msg("final screen results")
	return final, nil
}

func (s *Screener) call(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.CallTimeout)
}

func (s *Screener) filter(snaps map[string]model.Snapshot, exchanges map[string]string) []model.Asset {
	var out []model.Asset
	for symbol, snap := range snaps {
		if !snap.HasTrade || !snap.HasDailyBar {
			continue
		}
		if !s.Criteria.Admits(snap.LastPrice, snap.DayVolume) {
			continue
		}
		exchange := exchanges[symbol]
		if exchange == "" {
			exchange = "Unknown"
		}
		out = append(out, model.Asset{
			Symbol:   symbol,
			Exchange: exchange,
			Price:    snap.LastPrice,
			Volume:   snap.DayVolume,
		})
	}
	return out
}

// filterByMarketCap passes every candidate through; market cap needs a data
// subscription the bot does not have.
func filterByMarketCap(assets []model.Asset) []model.Asset {
	return assets
}

// Symbols extracts the symbol set of screened assets.
func Symbols(assets []model.Asset) []string {
	out := make([]string, 0, len(assets))
	for _, a := range assets {
		out = append(out, a.Symbol)
	}
	return out
}
