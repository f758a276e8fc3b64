package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/model"
	"NewsSentinel/internal/recorder"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *TelegramNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "", zerolog.Nop())
	n.BaseURL = srv.URL
	n.RetryBase = time.Millisecond
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls int32
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	require.NoError(t, n.SendWithRetry(context.Background(), "hi", 3))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	var calls int32
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := n.SendWithRetry(context.Background(), "hi", 2)
	assert.ErrorIs(t, err, apperr.ErrRateLimited)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDisabledNotifier(t *testing.T) {
	var n *TelegramNotifier
	assert.False(t, n.Enabled())
	assert.NoError(t, n.SendWithRetry(context.Background(), "x", 3))
	assert.ErrorIs(t, n.Send(context.Background(), "x"), apperr.ErrNotConfigured)

	empty := NewTelegramNotifier("", "", "", zerolog.Nop())
	assert.False(t, empty.Enabled())
	empty.StartPolling(context.Background(), nil) // returns immediately
}

func TestStartPolling(t *testing.T) {
	var (
		mu      sync.Mutex
		replies []string
		polls   int32
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if atomic.AddInt32(&polls, 1) == 1 {
				assert.Equal(t, "0", r.URL.Query().Get("offset"))
				_, _ = w.Write([]byte(`{"ok":true,"result":[
					{"update_id":7,"message":{"text":" /status ","chat":{"id":42}}},
					{"update_id":8,"message":{"text":"/status","chat":{"id":99}}}
				]}`))
				return
			}
			assert.Equal(t, "9", r.URL.Query().Get("offset"))
			cancel()
			_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			mu.Lock()
			replies = append(replies, body["text"])
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	})

	var commands []string
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			commands = append(commands, cmd)
			return "reply to " + cmd
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
	assert.Equal(t, []string{"/status"}, commands)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"reply to /status"}, replies)
}

func TestFormatEntry(t *testing.T) {
	msg := FormatEntry(&model.EntryResult{
		Symbol: "ABCD", Headline: "ABCD <beats> estimates", Notional: 1000,
		RSI: 55.2, Outcome: model.EntrySubmitted, OrderID: "o-1",
	})
	assert.Contains(t, msg, "BUY ABCD")
	assert.Contains(t, msg, "&lt;beats&gt;")
	assert.Contains(t, msg, "o-1")

	skipped := FormatEntry(&model.EntryResult{Symbol: "ABCD", RSI: 75, Outcome: model.EntrySkipped})
	assert.Contains(t, skipped, "SKIP ABCD")

	failed := FormatEntry(&model.EntryResult{Symbol: "ABCD", Outcome: model.EntryFailed, Err: errors.New("no buying power")})
	assert.Contains(t, failed, "no buying power")
}

func TestFormatExit(t *testing.T) {
	msg := FormatExit(&model.ExitEvent{
		Symbol: "ABCD", Reason: "Tier 1 Profit Take", Fraction: 0.5,
		EntryPrice: 100, Price: 107, Qty: 5,
	})
	assert.Contains(t, msg, "SELL ABCD")
	assert.Contains(t, msg, "50%")
	assert.Contains(t, msg, "+7.00%")
	assert.Contains(t, msg, "Tier 1 Profit Take")
}

func TestFormatPositions(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	assert.Contains(t, FormatPositions(nil, now), "No open positions")

	msg := FormatPositions([]model.TradeState{{
		Symbol: "ABCD", Qty: 5, EntryPrice: 100, MaxPrice: 120,
		EntryTime: now.Add(-90 * time.Minute), EntryTimeApprox: true,
		Tier1Sold: true, Status: model.TradePendingClose,
	}}, now)
	assert.Contains(t, msg, "ABCD")
	assert.Contains(t, msg, "~1h30m0s")
	assert.Contains(t, msg, "runner")
	assert.Contains(t, msg, "closing")
}

func TestFormatWatchlist(t *testing.T) {
	assert.Contains(t, FormatWatchlist(nil, time.Now()), "empty")

	symbols := make([]string, 60)
	for i := range symbols {
		symbols[i] = "S"
	}
	msg := FormatWatchlist(symbols, time.Now())
	assert.Contains(t, msg, "(60)")
	assert.Contains(t, msg, "+10 more")
}

func TestFormatStatus(t *testing.T) {
	now := time.Date(2024, 3, 14, 15, 0, 0, 0, time.UTC)
	msg := FormatStatus(Status{
		StartedAt:     now.Add(-time.Hour),
		WatchlistSize: 12,
		OpenPositions: 2,
		Activity:      recorder.Summary{Since: now.Add(-time.Hour), NewsSeen: 30, NewsAccepted: 2, Exits: 1},
	}, now)
	assert.Contains(t, msg, "up 1h0m0s")
	assert.Contains(t, msg, "Watchlist: 12")
	assert.Contains(t, msg, "news 30 seen / 2 accepted")
}
