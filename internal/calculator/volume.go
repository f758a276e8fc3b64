package calculator

import "NewsSentinel/internal/model"

// VolumeDivergence reports exhaustion: the last bar closes above the previous
// one on lower volume. Fewer than two bars never diverge.
func VolumeDivergence(bars []model.OHLCV) bool {
	if len(bars) < 2 {
		return false
	}
	curr := bars[len(bars)-1]
	prev := bars[len(bars)-2]
	return curr.Close > prev.Close && curr.Volume < prev.Volume
}
