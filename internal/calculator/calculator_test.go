package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsSentinel/internal/model"
)

func bars(closes ...float64) []model.OHLCV {
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{Close: c, Volume: 1000}
	}
	return out
}

func TestRSI_AllGains(t *testing.T) {
	rsi, err := CalculateRSI(bars(1, 2, 3, 4, 5), 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)
}

func TestRSI_AllLosses(t *testing.T) {
	rsi, err := CalculateRSI(bars(5, 4, 3, 2, 1), 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rsi, 1e-9)
}

func TestRSI_Flat(t *testing.T) {
	rsi, err := CalculateRSI(bars(5, 5, 5, 5), 3)
	require.NoError(t, err)
	assert.Equal(t, 50.0, rsi)
}

func TestRSI_Alternating(t *testing.T) {
	// equal up and down moves keep average gain == average loss
	rsi, err := RSI([]float64{10, 11, 10, 11, 10, 11, 10}, 2)
	require.NoError(t, err)
	assert.Greater(t, rsi, 0.0)
	assert.Less(t, rsi, 100.0)
}

func TestRSI_KnownSeed(t *testing.T) {
	// gains 2,0 losses 0,1 over period 2: avgGain 1, avgLoss 0.5, RS 2
	rsi, err := RSI([]float64{10, 12, 11}, 2)
	require.NoError(t, err)
	assert.InDelta(t, 100-100/3.0, rsi, 1e-9)
}

func TestRSI_InsufficientData(t *testing.T) {
	_, err := CalculateRSI(bars(1, 2), 14)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = RSI([]float64{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestVolumeDivergence(t *testing.T) {
	tests := []struct {
		name string
		bars []model.OHLCV
		want bool
	}{
		{"higher close lower volume", []model.OHLCV{{Close: 10, Volume: 500}, {Close: 11, Volume: 400}}, true},
		{"higher close higher volume", []model.OHLCV{{Close: 10, Volume: 500}, {Close: 11, Volume: 600}}, false},
		{"lower close lower volume", []model.OHLCV{{Close: 10, Volume: 500}, {Close: 9, Volume: 400}}, false},
		{"equal close", []model.OHLCV{{Close: 10, Volume: 500}, {Close: 10, Volume: 400}}, false},
		{"single bar", []model.OHLCV{{Close: 10, Volume: 500}}, false},
		{"uses last two", []model.OHLCV{{Close: 1, Volume: 1}, {Close: 10, Volume: 500}, {Close: 11, Volume: 400}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VolumeDivergence(tt.bars))
		})
	}
}
