package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsSentinel/internal/model"
)

var t0 = time.Date(2024, 3, 14, 14, 0, 0, 0, time.UTC)

func trade(entry float64) model.TradeState {
	return model.TradeState{
		Symbol:     "ABCD",
		EntryPrice: entry,
		EntryTime:  t0,
		Qty:        10,
		MaxPrice:   entry,
		Status:     model.TradeActive,
	}
}

func input(tr model.TradeState, price float64, now time.Time, rsi float64) Input {
	if price > tr.MaxPrice {
		tr.MaxPrice = price
	}
	return Input{
		Trade: tr,
		Price: price,
		Now:   now,
		RSI:   func() float64 { return rsi },
	}
}

func TestEvaluate_Ladder(t *testing.T) {
	th := DefaultThresholds()
	tier1 := trade(100)
	tier1.Tier1Sold = true
	tier1.MaxPrice = 120

	tests := []struct {
		name   string
		in     Input
		want   string
		reason string
		frac   float64
	}{
		{"hard stop", input(trade(100), 94, t0.Add(time.Minute), 50), "hard_stop", "Hard Stop Loss Hit", 1.0},
		{"stale", input(trade(100), 101, t0.Add(46*time.Minute), 50), "stale", "Stale Timer", 1.0},
		{"tier1", input(trade(100), 107, t0.Add(time.Minute), 50), "tier1", "Tier 1 Profit Take", 0.5},
		{"runner trailing", input(tier1, 116, t0.Add(10*time.Minute), 50), "runner_trailing", "Runner Trailing Stop Hit", 1.0},
		{"rsi overheat", input(trade(100), 102, t0.Add(time.Minute), 86), "rsi_overheat", "RSI Overheat", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Evaluate(tt.in, th)
			require.True(t, ok)
			assert.Equal(t, tt.want, d.Rule)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.frac, d.Fraction)
		})
	}
}

func TestEvaluate_StopLossBeatsRSI(t *testing.T) {
	rsiCalls := 0
	in := input(trade(100), 94, t0.Add(time.Minute), 0)
	in.RSI = func() float64 { rsiCalls++; return 90 }

	d, ok := Evaluate(in, DefaultThresholds())
	require.True(t, ok)
	assert.Equal(t, "Hard Stop Loss Hit", d.Reason)
	assert.Equal(t, 0, rsiCalls)
}

func TestEvaluate_StopBoundary(t *testing.T) {
	th := DefaultThresholds()
	_, ok := Evaluate(input(trade(100), 95, t0.Add(time.Minute), 50), th)
	assert.False(t, ok, "a drop of exactly the stop is not below it")
	_, ok = Evaluate(input(trade(100), 94.99, t0.Add(time.Minute), 50), th)
	assert.True(t, ok)
}

func TestEvaluate_StaleBoundaries(t *testing.T) {
	th := DefaultThresholds()
	_, ok := Evaluate(input(trade(100), 101, t0.Add(45*time.Minute), 50), th)
	assert.False(t, ok, "45m is not past the stale window")

	_, ok = Evaluate(input(trade(100), 101.5, t0.Add(46*time.Minute), 50), th)
	assert.False(t, ok, "minimum stale profit keeps a position alive")
}

func TestEvaluate_Tier1ThenRunner(t *testing.T) {
	th := DefaultThresholds()
	tr := trade(100)

	d, ok := Evaluate(input(tr, 107, t0.Add(time.Minute), 50), th)
	require.True(t, ok)
	assert.True(t, d.Tier1)
	assert.Equal(t, 0.5, d.Fraction)
	tr.Tier1Sold = true
	tr.MaxPrice = 107

	in := input(tr, 120, t0.Add(2*time.Minute), 50)
	_, ok = Evaluate(in, th)
	assert.False(t, ok)
	tr.MaxPrice = in.Trade.MaxPrice
	assert.Equal(t, 120.0, tr.MaxPrice)

	d, ok = Evaluate(input(tr, 116, t0.Add(3*time.Minute), 50), th)
	require.True(t, ok)
	assert.Equal(t, "Runner Trailing Stop Hit", d.Reason)
	assert.Equal(t, 1.0, d.Fraction)
}

func TestEvaluate_Tier1FiresOnce(t *testing.T) {
	tr := trade(100)
	tr.Tier1Sold = true
	_, ok := Evaluate(input(tr, 107, t0.Add(time.Minute), 50), DefaultThresholds())
	assert.False(t, ok)
}

func TestEvaluate_VolumeExhaustion(t *testing.T) {
	in := input(trade(100), 102, t0.Add(time.Minute), 50)
	in.Divergence = func() bool { return true }
	d, ok := Evaluate(in, DefaultThresholds())
	require.True(t, ok)
	assert.Equal(t, "Volume Exhaustion Detected", d.Reason)
}

func TestEvaluate_NoRuleAndNeutralDefaults(t *testing.T) {
	in := Input{Trade: trade(100), Price: 102, Now: t0.Add(time.Minute)}
	_, ok := Evaluate(in, DefaultThresholds())
	assert.False(t, ok)
}

func TestEntryGuard(t *testing.T) {
	g := DefaultEntryGuard()
	assert.True(t, g.Allows(50))
	assert.True(t, g.Allows(70))
	assert.False(t, g.Allows(70.01))
}
