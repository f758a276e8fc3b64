package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeStatus is the lifecycle stage of a tracked position.
type TradeStatus string

const (
	TradeActive       TradeStatus = "ACTIVE"
	TradePendingClose TradeStatus = "PENDING_CLOSE"
)

// TradeState is the locally tracked view of one broker position.
type TradeState struct {
	Symbol     string
	EntryPrice float64
	EntryTime  time.Time
	// EntryTimeApprox is true when EntryTime was substituted at adoption
	// instead of coming from the actual fill.
	EntryTimeApprox  bool
	Qty              float64
	MaxPrice         float64
	Tier1Sold        bool
	Status           TradeStatus
	CloseRequestedAt time.Time
}

// IsActive reports whether exit rules should still be evaluated.
func (t *TradeState) IsActive() bool {
	return t.Status == TradeActive
}

// ProfitFraction returns (price - entry) / entry.
func (t *TradeState) ProfitFraction(price float64) float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return (price - t.EntryPrice) / t.EntryPrice
}

// BrokerPosition is an open position as reported by the broker.
type BrokerPosition struct {
	Symbol        string
	AvgEntryPrice decimal.Decimal
	Qty           decimal.Decimal
	CurrentPrice  decimal.Decimal
}

// OrderSide is the direction of a market order.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// TimeInForce values accepted by the broker.
const (
	TimeInForceDay = "day"
)

// OrderRequest describes a market order. Exactly one of Qty and Notional is set.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Qty           decimal.Decimal
	Notional      decimal.Decimal
	TimeInForce   string
	ClientOrderID string
}

// Order is the broker's acknowledgement of a submitted order.
type Order struct {
	ID            string
	ClientOrderID string
	Symbol        string
	Side          OrderSide
	Status        string
	SubmittedAt   time.Time
}
