// Package signal turns accepted news into entry attempts for watchlisted symbols.
package signal

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"NewsSentinel/internal/collector"
	"NewsSentinel/internal/model"
	"NewsSentinel/internal/strategy"
)

// Opener submits entry orders.
type Opener interface {
	OpenPosition(ctx context.Context, symbol string, notional float64) (model.Order, error)
}

// Watchlist is the candidate set entries are restricted to.
type Watchlist interface {
	Intersect(symbols []string) []string
}

// Options configures a Router.
type Options struct {
	Guard       strategy.EntryGuard
	Notional    float64
	CallTimeout time.Duration
	Now         func() time.Time
}

// Router offers each watchlisted symbol of an accepted article for entry.
type Router struct {
	watchlist  Watchlist
	indicators collector.Indicators
	opener     Opener
	opts       Options
	logger     zerolog.Logger
}

// NewRouter creates a Router. Zero options fall back to RSI 70 and $1000 per entry.
func NewRouter(wl Watchlist, ind collector.Indicators, opener Opener, opts Options, logger zerolog.Logger) *Router {
	if opts.Guard == (strategy.EntryGuard{}) {
		opts.Guard = strategy.DefaultEntryGuard()
	}
	if opts.Notional <= 0 {
		opts.Notional = 1000
	}
	if opts.CallTimeout == 0 {
		opts.CallTimeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Router{watchlist: wl, indicators: ind, opener: opener, opts: opts, logger: logger}
}

// Route returns one result per relevant symbol, in article order. Articles with
// no watchlisted symbol produce nothing.
func (r *Router) Route(ctx context.Context, a model.NewsArticle) []model.EntryResult {
	relevant := r.watchlist.Intersect(a.Symbols)
	if len(relevant) == 0 {
		return nil
	}

	results := make([]model.EntryResult, 0, len(relevant))
	for _, symbol := range relevant {
		if ctx.Err() != nil {
			break
		}
		results = append(results, r.enter(ctx, symbol, a.Headline))
	}
	return results
}

func (r *Router) enter(ctx context.Context, symbol, headline string) model.EntryResult {
	log := r.logger.With().Str("symbol", symbol).Logger()
	res := model.EntryResult{
		Symbol:    symbol,
		Headline:  headline,
		Notional:  r.opts.Notional,
		Timestamp: r.opts.Now(),
	}

	ictx, cancel := context.WithTimeout(ctx, r.opts.CallTimeout)
	res.RSI = r.indicators.RSI(ictx, symbol)
	cancel()

	if !r.opts.Guard.Allows(res.RSI) {
		res.Outcome = model.EntrySkipped
		log.Info().Float64("rsi", res.RSI).Str("reason", "rsi_overbought").Msg("entry skipped")
		return res
	}

	log.Info().Float64("rsi", res.RSI).Str("headline", headline).Msg("material catalyst, entering")
	order, err := r.opener.OpenPosition(ctx, symbol, r.opts.Notional)
	if err != nil {
		res.Outcome = model.EntryFailed
		res.Err = err
		log.Error().Err(err).Msg("entry order failed")
		return res
	}
	res.Outcome = model.EntrySubmitted
	res.OrderID = order.ID
	return res
}
