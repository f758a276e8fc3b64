package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"NewsSentinel/internal/model"
	"NewsSentinel/internal/recorder"
)

// maxWatchlistShown caps how many symbols a /watchlist reply lists.
const maxWatchlistShown = 50

// FormatEntry formats an entry attempt.
func FormatEntry(e *model.EntryResult) string {
	var b strings.Builder
	switch e.Outcome {
	case model.EntrySubmitted:
		b.WriteString(fmt.Sprintf("🟢 <b>BUY %s</b> $%.0f\n", e.Symbol, e.Notional))
	case model.EntrySkipped:
		b.WriteString(fmt.Sprintf("⏸ <b>SKIP %s</b> RSI %.1f overbought\n", e.Symbol, e.RSI))
	default:
		b.WriteString(fmt.Sprintf("❌ <b>BUY %s failed</b>\n", e.Symbol))
	}
	b.WriteString(html.EscapeString(e.Headline))
	if e.Outcome == model.EntrySubmitted {
		b.WriteString(fmt.Sprintf("\nRSI %.1f | order %s", e.RSI, e.OrderID))
	}
	if e.Err != nil {
		b.WriteString("\n" + html.EscapeString(e.Err.Error()))
	}
	return b.String()
}

// FormatExit formats an exit rule firing.
func FormatExit(e *model.ExitEvent) string {
	var b strings.Builder
	icon := "🔴"
	if e.Fraction < 1 {
		icon = "🟡"
	}
	b.WriteString(fmt.Sprintf("%s <b>SELL %s</b> %.0f%% | %s\n", icon, e.Symbol, e.Fraction*100, e.Reason))
	pnl := 0.0
	if e.EntryPrice > 0 {
		pnl = (e.Price - e.EntryPrice) / e.EntryPrice * 100
	}
	b.WriteString(fmt.Sprintf("Entry %.2f → %.2f (%+.2f%%)", e.EntryPrice, e.Price, pnl))
	if e.Qty > 0 {
		b.WriteString(fmt.Sprintf(" | qty %g", e.Qty))
	}
	if e.Err != nil {
		b.WriteString("\n❗ " + html.EscapeString(e.Err.Error()))
	}
	return b.String()
}

// FormatPositions formats the tracked positions.
func FormatPositions(trades []model.TradeState, now time.Time) string {
	if len(trades) == 0 {
		return "📭 No open positions"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Positions</b> (%d)\n\n", len(trades)))
	for _, t := range trades {
		flags := ""
		if t.Tier1Sold {
			flags += " runner"
		}
		if t.Status == model.TradePendingClose {
			flags += " closing"
		}
		held := now.Sub(t.EntryTime).Truncate(time.Minute)
		approx := ""
		if t.EntryTimeApprox {
			approx = "~"
		}
		b.WriteString(fmt.Sprintf("<b>%s</b> qty %g @ %.2f | max %.2f | held %s%s%s\n",
			t.Symbol, t.Qty, t.EntryPrice, t.MaxPrice, approx, held, flags))
	}
	return b.String()
}

// FormatWatchlist formats the current watchlist.
func FormatWatchlist(symbols []string, updatedAt time.Time) string {
	if len(symbols) == 0 {
		return "👀 Watchlist is empty"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👀 <b>Watchlist</b> (%d) | updated %s\n", len(symbols), updatedAt.Format("15:04")))
	shown := symbols
	if len(shown) > maxWatchlistShown {
		shown = shown[:maxWatchlistShown]
	}
	b.WriteString(strings.Join(shown, " "))
	if len(symbols) > len(shown) {
		b.WriteString(fmt.Sprintf(" … +%d more", len(symbols)-len(shown)))
	}
	return b.String()
}

// Status is the bot health snapshot shown by /status.
type Status struct {
	StartedAt     time.Time
	WatchlistSize int
	OpenPositions int
	DedupSize     int
	LastNewsPoll  time.Time
	Activity      recorder.Summary
}

// FormatStatus formats the bot status.
func FormatStatus(s Status, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🤖 <b>NewsSentinel</b> | up %s\n\n", now.Sub(s.StartedAt).Truncate(time.Second)))
	b.WriteString(fmt.Sprintf("Watchlist: %d\n", s.WatchlistSize))
	b.WriteString(fmt.Sprintf("Positions: %d\n", s.OpenPositions))
	b.WriteString(fmt.Sprintf("Dedup cache: %d\n", s.DedupSize))
	if !s.LastNewsPoll.IsZero() {
		b.WriteString(fmt.Sprintf("Last news poll: %s\n", s.LastNewsPoll.Format("15:04:05")))
	}
	a := s.Activity
	b.WriteString(fmt.Sprintf("\nSince %s:\n", a.Since.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("  news %d seen / %d accepted\n", a.NewsSeen, a.NewsAccepted))
	b.WriteString(fmt.Sprintf("  entries %d sent / %d skipped\n", a.EntriesSent, a.EntriesSkipped))
	b.WriteString(fmt.Sprintf("  exits %d (%d failed)\n", a.Exits, a.ExitsFailed))
	return b.String()
}
