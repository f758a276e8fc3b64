// Package strategy holds the entry guard and the exit rule ladder.
package strategy

import (
	"time"

	"NewsSentinel/internal/model"
)

// Thresholds parameterizes the exit rule ladder. Fractions are of the entry or max price.
type Thresholds struct {
	HardStop       float64
	StaleAfter     time.Duration
	StaleMinProfit float64
	Tier1Profit    float64
	Tier1Fraction  float64
	TrailingStop   float64
	RSIOverheat    float64
}

// DefaultThresholds returns the standard ladder: 5% stop, 45m stale timer,
// 6.5% tier-1 half sale, 3% runner trail, RSI 85 overheat.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HardStop:       0.05,
		StaleAfter:     45 * time.Minute,
		StaleMinProfit: 0.015,
		Tier1Profit:    0.065,
		Tier1Fraction:  0.5,
		TrailingStop:   0.03,
		RSIOverheat:    85,
	}
}

// Input is one position as the ladder sees it. Trade.MaxPrice must already
// include Price. RSI and Divergence are only called if the ladder reaches them.
type Input struct {
	Trade      model.TradeState
	Price      float64
	Now        time.Time
	RSI        func() float64
	Divergence func() bool

	rsi    *float64
	diverg *bool
}

func (in *Input) rsiValue() float64 {
	if in.rsi == nil {
		v := 50.0
		if in.RSI != nil {
			v = in.RSI()
		}
		in.rsi = &v
	}
	return *in.rsi
}

func (in *Input) divergence() bool {
	if in.diverg == nil {
		v := false
		if in.Divergence != nil {
			v = in.Divergence()
		}
		in.diverg = &v
	}
	return *in.diverg
}

// Decision is the sale the first matching rule asks for.
type Decision struct {
	Rule     string
	Reason   string
	Fraction float64
	// Tier1 marks the partial profit take; Tier1Sold is set once it executes.
	Tier1 bool
}

// ExitRule is one rung of the ladder.
type ExitRule struct {
	Name    string
	Reason  string
	Tier1   bool
	Matches func(in *Input, th Thresholds) bool
	// Fraction of the live position to sell.
	Fraction func(th Thresholds) float64
}

func sellAll(Thresholds) float64 { return 1.0 }

// ExitRules is the exit ladder in priority order; the first match wins.
var ExitRules = []ExitRule{
	{
		Name:   "hard_stop",
		Reason: "Hard Stop Loss Hit",
		Matches: func(in *Input, th Thresholds) bool {
			return in.Price < in.Trade.EntryPrice*(1-th.HardStop)
		},
		Fraction: sellAll,
	},
	{
		Name:   "stale",
		Reason: "Stale Timer",
		Matches: func(in *Input, th Thresholds) bool {
			return in.Now.Sub(in.Trade.EntryTime) > th.StaleAfter &&
				in.Trade.ProfitFraction(in.Price) < th.StaleMinProfit
		},
		Fraction: sellAll,
	},
	{
		Name:   "tier1",
		Reason: "Tier 1 Profit Take",
		Tier1:  true,
		Matches: func(in *Input, th Thresholds) bool {
			return !in.Trade.Tier1Sold && in.Trade.ProfitFraction(in.Price) >= th.Tier1Profit
		},
		Fraction: func(th Thresholds) float64 { return th.Tier1Fraction },
	},
	{
		Name:   "runner_trailing",
		Reason: "Runner Trailing Stop Hit",
		Matches: func(in *Input, th Thresholds) bool {
			peak := in.Trade.MaxPrice
			return in.Trade.Tier1Sold && peak > 0 && (peak-in.Price)/peak >= th.TrailingStop
		},
		Fraction: sellAll,
	},
	{
		Name:   "rsi_overheat",
		Reason: "RSI Overheat",
		Matches: func(in *Input, th Thresholds) bool {
			return in.rsiValue() > th.RSIOverheat
		},
		Fraction: sellAll,
	},
	{
		Name:   "volume_exhaustion",
		Reason: "Volume Exhaustion Detected",
		Matches: func(in *Input, _ Thresholds) bool {
			return in.divergence()
		},
		Fraction: sellAll,
	},
}

// Evaluate walks ExitRules and returns the first matching decision.
func Evaluate(in Input, th Thresholds) (Decision, bool) {
	for _, r := range ExitRules {
		if r.Matches(&in, th) {
			return Decision{
				Rule:     r.Name,
				Reason:   r.Reason,
				Fraction: r.Fraction(th),
				Tier1:    r.Tier1,
			}, true
		}
	}
	return Decision{}, false
}
