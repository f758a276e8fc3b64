package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Snapshot is the latest trade and daily bar for one symbol, as used by the screener.
type Snapshot struct {
	Symbol      string
	LastPrice   decimal.Decimal
	HasTrade    bool
	DayVolume   int64
	HasDailyBar bool
}

// Asset is a screened, tradeable equity. Values are never mutated after construction.
type Asset struct {
	Symbol    string
	Name      string
	Exchange  string
	Price     decimal.Decimal
	Volume    int64
	MarketCap *float64
}

// IsValidCandidate reports whether the asset has a usable price and any traded volume.
func (a Asset) IsValidCandidate() bool {
	return a.Price.IsPositive() && a.Volume > 0
}

// UniverseAsset is an entry of the broker's tradable equity universe.
type UniverseAsset struct {
	Symbol     string
	Name       string
	Exchange   string
	Tradable   bool
	Marginable bool
}
