// Package position tracks open positions and runs the exit ladder against them.
package position

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"NewsSentinel/internal/broker"
	"NewsSentinel/internal/collector"
	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/model"
	"NewsSentinel/internal/strategy"
)

// fullClose is the fraction at or above which a sale liquidates the position.
const fullClose = 0.99

// qtyPrecision is the number of decimal places order quantities are truncated to.
const qtyPrecision = 9

// Options configures a Manager.
type Options struct {
	Thresholds          strategy.Thresholds
	// AdoptExpired backdates adopted positions past the stale window instead
	// of treating them as entered when first observed.
	AdoptExpired        bool
	PendingCloseTimeout time.Duration
	CallTimeout         time.Duration
	Now                 func() time.Time
	NewOrderID          func() string
}

// Manager owns the TradeState map. Update cycles are serialized.
type Manager struct {
	broker     broker.Broker
	indicators collector.Indicators
	opts       Options
	logger     zerolog.Logger

	cycle  sync.Mutex
	mu     sync.Mutex
	trades map[string]*model.TradeState
}

// NewManager creates a Manager with no tracked positions.
func NewManager(b broker.Broker, ind collector.Indicators, opts Options, logger zerolog.Logger) *Manager {
	if opts.Thresholds == (strategy.Thresholds{}) {
		opts.Thresholds = strategy.DefaultThresholds()
	}
	if opts.PendingCloseTimeout == 0 {
		opts.PendingCloseTimeout = 5 * time.Minute
	}
	if opts.CallTimeout == 0 {
		opts.CallTimeout = 15 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewOrderID == nil {
		opts.NewOrderID = uuid.NewString
	}
	return &Manager{
		broker:     b,
		indicators: ind,
		opts:       opts,
		logger:     logger,
		trades:     make(map[string]*model.TradeState),
	}
}

func (m *Manager) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.opts.CallTimeout)
}

// OpenPosition submits a market buy for notional dollars. The new position is
// picked up by the next reconciliation.
func (m *Manager) OpenPosition(ctx context.Context, symbol string, notional float64) (model.Order, error) {
	cctx, cancel := m.call(ctx)
	defer cancel()

	order, err := m.broker.SubmitMarketOrder(cctx, model.OrderRequest{
		Symbol:        symbol,
		Side:          model.SideBuy,
		Notional:      decimal.NewFromFloat(notional),
		TimeInForce:   model.TimeInForceDay,
		ClientOrderID: m.opts.NewOrderID(),
	})
	if err != nil {
		return model.Order{}, apperr.Timeout(err)
	}
	m.logger.Info().Str("symbol", symbol).Float64("notional", notional).Str("order_id", order.ID).Msg("buy order submitted")
	return order, nil
}

// Update reconciles with the broker and runs the exit ladder over every active
// position. A failed position fetch abandons the cycle without touching state.
func (m *Manager) Update(ctx context.Context) ([]model.ExitEvent, error) {
	m.cycle.Lock()
	defer m.cycle.Unlock()

	cctx, cancel := m.call(ctx)
	positions, err := m.broker.OpenPositions(cctx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch positions: %w", apperr.Timeout(err))
	}

	now := m.opts.Now()
	m.reconcile(positions, now)

	var events []model.ExitEvent
	for _, p := range positions {
		if ctx.Err() != nil {
			break
		}
		price := p.CurrentPrice.InexactFloat64()
		m.mu.Lock()
		t, ok := m.trades[p.Symbol]
		if !ok {
			m.mu.Unlock()
			continue
		}
		if t.Status == model.TradePendingClose {
			due := now.Sub(t.CloseRequestedAt) > m.opts.PendingCloseTimeout
			m.mu.Unlock()
			if due {
				m.reissueClose(ctx, p.Symbol, now)
			}
			continue
		}
		if price <= 0 {
			m.mu.Unlock()
			m.logger.Warn().Str("symbol", p.Symbol).Msg("no current price, skipping exit rules")
			continue
		}
		if price > t.MaxPrice {
			t.MaxPrice = price
		}
		snapshot := *t
		m.mu.Unlock()

		symbol := p.Symbol
		decision, hit := strategy.Evaluate(strategy.Input{
			Trade: snapshot,
			Price: price,
			Now:   now,
			RSI: func() float64 {
				ictx, cancel := m.call(ctx)
				defer cancel()
				return m.indicators.RSI(ictx, symbol)
			},
			Divergence: func() bool {
				ictx, cancel := m.call(ctx)
				defer cancel()
				return m.indicators.HasVolumeDivergence(ictx, symbol)
			},
		}, m.opts.Thresholds)
		if !hit {
			continue
		}
		events = append(events, m.sell(ctx, snapshot, price, decision))
	}
	return events, nil
}

// reconcile adopts unknown broker positions and drops records the broker no longer reports.
func (m *Manager) reconcile(positions []model.BrokerPosition, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reported := make(map[string]bool, len(positions))
	for _, p := range positions {
		reported[p.Symbol] = true
		if t, ok := m.trades[p.Symbol]; ok {
			t.Qty = p.Qty.InexactFloat64()
			continue
		}
		m.trades[p.Symbol] = m.adopt(p, now)
		m.logger.Info().
			Str("symbol", p.Symbol).
			Str("entry", p.AvgEntryPrice.String()).
			Str("qty", p.Qty.String()).
			Msg("adopted position")
	}

	for symbol, t := range m.trades {
		if reported[symbol] {
			continue
		}
		delete(m.trades, symbol)
		if t.Status == model.TradePendingClose {
			m.logger.Info().Str("symbol", symbol).Msg("close confirmed")
		} else {
			m.logger.Info().Str("symbol", symbol).Msg("position closed externally")
		}
	}
}

func (m *Manager) adopt(p model.BrokerPosition, now time.Time) *model.TradeState {
	entryTime := now
	if m.opts.AdoptExpired {
		// one second past the stale window
		entryTime = now.Add(-m.opts.Thresholds.StaleAfter - time.Second)
	}
	return &model.TradeState{
		Symbol:          p.Symbol,
		EntryPrice:      p.AvgEntryPrice.InexactFloat64(),
		EntryTime:       entryTime,
		EntryTimeApprox: true,
		Qty:             p.Qty.InexactFloat64(),
		MaxPrice:        p.CurrentPrice.InexactFloat64(),
		Status:          model.TradeActive,
	}
}

// sell executes one ladder decision. Failures are logged and reported in the event.
func (m *Manager) sell(ctx context.Context, t model.TradeState, price float64, d strategy.Decision) model.ExitEvent {
	ev := model.ExitEvent{
		Symbol:     t.Symbol,
		Rule:       d.Rule,
		Reason:     d.Reason,
		Fraction:   d.Fraction,
		EntryPrice: t.EntryPrice,
		Price:      price,
		Timestamp:  m.opts.Now(),
	}
	log := m.logger.With().Str("symbol", t.Symbol).Str("reason", d.Reason).Logger()
	log.Info().Float64("price", price).Float64("entry", t.EntryPrice).Msg("exit rule triggered")

	cctx, cancel := m.call(ctx)
	live, err := m.broker.Position(cctx, t.Symbol)
	cancel()
	if err != nil {
		ev.Err = apperr.Timeout(err)
		if errors.Is(err, apperr.ErrPositionNotFound) {
			m.remove(t.Symbol)
			log.Warn().Msg("position vanished before sale")
		} else {
			log.Error().Err(ev.Err).Msg("could not fetch live position")
		}
		return ev
	}

	qty := live.Qty.Mul(decimal.NewFromFloat(d.Fraction)).Truncate(qtyPrecision)
	ev.Qty = qty.InexactFloat64()

	if d.Fraction >= fullClose {
		cctx, cancel := m.call(ctx)
		order, err := m.broker.ClosePosition(cctx, t.Symbol)
		cancel()
		m.markPendingClose(t.Symbol, ev.Timestamp)
		if err != nil {
			ev.Err = apperr.Timeout(err)
			log.Error().Err(ev.Err).Msg("close position failed")
			return ev
		}
		ev.OrderID = order.ID
		log.Info().Str("order_id", order.ID).Msg("close submitted")
		return ev
	}

	if !qty.IsPositive() {
		ev.Err = apperr.NewOrderError(t.Symbol, string(model.SideSell), d.Reason, errors.New("quantity rounds to zero"))
		log.Error().Err(ev.Err).Msg("partial sell skipped")
		return ev
	}

	cctx, cancel = m.call(ctx)
	order, err := m.broker.SubmitMarketOrder(cctx, model.OrderRequest{
		Symbol:        t.Symbol,
		Side:          model.SideSell,
		Qty:           qty,
		TimeInForce:   model.TimeInForceDay,
		ClientOrderID: m.opts.NewOrderID(),
	})
	cancel()
	if err != nil {
		ev.Err = apperr.Timeout(err)
		// a timed-out tier-1 order may still have filled
		if d.Tier1 && !apperr.IsRejected(err) {
			m.markTier1Sold(t.Symbol)
		}
		log.Error().Err(ev.Err).Str("qty", qty.String()).Msg("partial sell failed")
		return ev
	}
	ev.OrderID = order.ID
	if d.Tier1 {
		m.markTier1Sold(t.Symbol)
	}
	log.Info().Str("order_id", order.ID).Str("qty", qty.String()).Msg("partial sell submitted")
	return ev
}

func (m *Manager) reissueClose(ctx context.Context, symbol string, now time.Time) {
	m.logger.Warn().Str("symbol", symbol).Msg("close still pending, re-issuing")
	cctx, cancel := m.call(ctx)
	_, err := m.broker.ClosePosition(cctx, symbol)
	cancel()
	m.markPendingClose(symbol, now)
	if err != nil {
		m.logger.Error().Err(apperr.Timeout(err)).Str("symbol", symbol).Msg("re-issued close failed")
	}
}

func (m *Manager) markTier1Sold(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.trades[symbol]; ok {
		rec.Tier1Sold = true
	}
}

func (m *Manager) markPendingClose(symbol string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.trades[symbol]; ok {
		rec.Status = model.TradePendingClose
		rec.CloseRequestedAt = at
	}
}

func (m *Manager) remove(symbol string) {
	m.mu.Lock()
	delete(m.trades, symbol)
	m.mu.Unlock()
}

// Snapshot returns copies of all tracked positions, sorted by symbol.
func (m *Manager) Snapshot() []model.TradeState {
	m.mu.Lock()
	out := make([]model.TradeState, 0, len(m.trades))
	for _, t := range m.trades {
		out = append(out, *t)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len returns the number of tracked positions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trades)
}
