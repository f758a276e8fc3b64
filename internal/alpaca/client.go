// Package alpaca is a REST client for the Alpaca trading and market data APIs.
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperr "NewsSentinel/internal/errors"
)

// Client talks to the Alpaca trading API and the market data API.
// It implements broker.Broker, watchlist.MarketData and collector.BarFetcher.
type Client struct {
	TradingURL string
	DataURL    string
	APIKey     string
	SecretKey  string
	Client     *http.Client
}

// NewClient creates a new client with optional proxy support.
func NewClient(tradingURL, dataURL, apiKey, secretKey, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		TradingURL: strings.TrimRight(tradingURL, "/"),
		DataURL:    strings.TrimRight(dataURL, "/"),
		APIKey:     apiKey,
		SecretKey:  secretKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (c *Client) Name() string { return "alpaca" }

// apiError is the error body Alpaca returns on non-2xx responses.
type apiError struct {
	Code    json.Number `json:"code"`
	Message string      `json:"message"`
}

// do sends a request and returns the raw body of a 2xx response.
func (c *Client) do(ctx context.Context, method, base, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("APCA-API-KEY-ID", c.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.SecretKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, apperr.Timeout(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Timeout(fmt.Errorf("read %s: %w", path, err))
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	var ae apiError
	if json.Unmarshal(respBody, &ae) != nil || ae.Message == "" {
		ae.Message = strings.TrimSpace(string(respBody))
	}
	var cause error
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		cause = apperr.ErrRateLimited
	case http.StatusNotFound:
		cause = apperr.ErrNoData
	}
	return nil, apperr.NewBrokerError(resp.StatusCode, ae.Code.String(), ae.Message, cause)
}

func (c *Client) getJSON(ctx context.Context, base, path string, query url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, base, path, query, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
