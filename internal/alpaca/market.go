package alpaca

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"NewsSentinel/internal/model"
)

// maxBarPages bounds pagination of one bars request.
const maxBarPages = 10

type snapshot struct {
	LatestTrade *struct {
		Price decimal.Decimal `json:"p"`
	} `json:"latestTrade"`
	DailyBar *struct {
		Volume int64 `json:"v"`
	} `json:"dailyBar"`
}

// Snapshots fetches the latest trade and daily bar for symbols.
func (c *Client) Snapshots(ctx context.Context, symbols []string) (map[string]model.Snapshot, error) {
	q := url.Values{}
	q.Set("symbols", strings.Join(symbols, ","))
	var raw map[string]*snapshot
	if err := c.getJSON(ctx, c.DataURL, "/v2/stocks/snapshots", q, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]model.Snapshot, len(raw))
	for symbol, s := range raw {
		if s == nil {
			continue
		}
		snap := model.Snapshot{Symbol: symbol}
		if s.LatestTrade != nil {
			snap.HasTrade = true
			snap.LastPrice = s.LatestTrade.Price
		}
		if s.DailyBar != nil {
			snap.HasDailyBar = true
			snap.DayVolume = s.DailyBar.Volume
		}
		out[symbol] = snap
	}
	return out, nil
}

type bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

type barsPage struct {
	Bars          []bar   `json:"bars"`
	NextPageToken *string `json:"next_page_token"`
}

// FetchBars fetches historical bars for symbol since the given time, oldest first.
func (c *Client) FetchBars(ctx context.Context, symbol, timeframe string, since time.Time) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("timeframe", timeframe)
	q.Set("start", since.UTC().Format(time.RFC3339))
	q.Set("limit", "10000")
	q.Set("adjustment", "raw")

	var out []model.OHLCV
	for page := 0; page < maxBarPages; page++ {
		var p barsPage
		if err := c.getJSON(ctx, c.DataURL, "/v2/stocks/"+url.PathEscape(symbol)+"/bars", q, &p); err != nil {
			return nil, fmt.Errorf("bars %s: %w", symbol, err)
		}
		for _, b := range p.Bars {
			out = append(out, model.OHLCV{
				Time:   b.Time,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
		}
		if p.NextPageToken == nil || *p.NextPageToken == "" {
			break
		}
		q.Set("page_token", *p.NextPageToken)
	}
	return out, nil
}

// News fetches the raw news feed published since the given time, newest first.
// The payload is left for news.NormalizeFeed.
func (c *Client) News(ctx context.Context, since time.Time, limit int, includeContent bool) ([]byte, error) {
	q := url.Values{}
	q.Set("start", since.UTC().Format(time.RFC3339))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("include_content", strconv.FormatBool(includeContent))
	q.Set("sort", "desc")
	return c.do(ctx, http.MethodGet, c.DataURL, "/v1beta1/news", q, nil)
}
