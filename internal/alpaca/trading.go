package alpaca

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	apperr "NewsSentinel/internal/errors"
	"NewsSentinel/internal/model"
)

type position struct {
	Symbol        string          `json:"symbol"`
	Qty           decimal.Decimal `json:"qty"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
}

func (p position) toModel() model.BrokerPosition {
	return model.BrokerPosition{
		Symbol:        p.Symbol,
		AvgEntryPrice: p.AvgEntryPrice,
		Qty:           p.Qty,
		CurrentPrice:  p.CurrentPrice,
	}
}

type order struct {
	ID            string    `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Status        string    `json:"status"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

func (o order) toModel() model.Order {
	return model.Order{
		ID:            o.ID,
		ClientOrderID: o.ClientOrderID,
		Symbol:        o.Symbol,
		Side:          model.OrderSide(o.Side),
		Status:        o.Status,
		SubmittedAt:   o.SubmittedAt,
	}
}

type orderRequest struct {
	Symbol        string           `json:"symbol"`
	Qty           *decimal.Decimal `json:"qty,omitempty"`
	Notional      *decimal.Decimal `json:"notional,omitempty"`
	Side          string           `json:"side"`
	Type          string           `json:"type"`
	TimeInForce   string           `json:"time_in_force"`
	ClientOrderID string           `json:"client_order_id,omitempty"`
}

// OpenPositions lists all open positions.
func (c *Client) OpenPositions(ctx context.Context) ([]model.BrokerPosition, error) {
	var raw []position
	if err := c.getJSON(ctx, c.TradingURL, "/v2/positions", nil, &raw); err != nil {
		return nil, err
	}
	out := make([]model.BrokerPosition, len(raw))
	for i, p := range raw {
		out[i] = p.toModel()
	}
	return out, nil
}

// Position returns the open position for symbol, or ErrPositionNotFound.
func (c *Client) Position(ctx context.Context, symbol string) (model.BrokerPosition, error) {
	var p position
	err := c.getJSON(ctx, c.TradingURL, "/v2/positions/"+url.PathEscape(symbol), nil, &p)
	if err != nil {
		var be *apperr.BrokerError
		if errors.As(err, &be) && be.Status == http.StatusNotFound {
			return model.BrokerPosition{}, fmt.Errorf("%s: %w", symbol, apperr.ErrPositionNotFound)
		}
		return model.BrokerPosition{}, err
	}
	return p.toModel(), nil
}

// SubmitMarketOrder places a market order by quantity or by notional.
func (c *Client) SubmitMarketOrder(ctx context.Context, req model.OrderRequest) (model.Order, error) {
	body := orderRequest{
		Symbol:        req.Symbol,
		Side:          string(req.Side),
		Type:          "market",
		TimeInForce:   req.TimeInForce,
		ClientOrderID: req.ClientOrderID,
	}
	if body.TimeInForce == "" {
		body.TimeInForce = model.TimeInForceDay
	}
	switch {
	case req.Notional.IsPositive():
		n := req.Notional
		body.Notional = &n
	case req.Qty.IsPositive():
		q := req.Qty
		body.Qty = &q
	default:
		return model.Order{}, apperr.NewOrderError(req.Symbol, string(req.Side), "market", errors.New("order needs a positive qty or notional"))
	}

	raw, err := c.do(ctx, http.MethodPost, c.TradingURL, "/v2/orders", nil, body)
	if err != nil {
		return model.Order{}, apperr.NewOrderError(req.Symbol, string(req.Side), "market", err)
	}
	var o order
	if err := json.Unmarshal(raw, &o); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o.toModel(), nil
}

// ClosePosition liquidates the whole position for symbol.
func (c *Client) ClosePosition(ctx context.Context, symbol string) (model.Order, error) {
	raw, err := c.do(ctx, http.MethodDelete, c.TradingURL, "/v2/positions/"+url.PathEscape(symbol), nil, nil)
	if err != nil {
		return model.Order{}, apperr.NewOrderError(symbol, string(model.SideSell), "close", err)
	}
	var o order
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &o); err != nil {
			return model.Order{}, fmt.Errorf("decode close order: %w", err)
		}
	}
	return o.toModel(), nil
}

type asset struct {
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	Exchange   string `json:"exchange"`
	Tradable   bool   `json:"tradable"`
	Marginable bool   `json:"marginable"`
}

// Universe lists active US equities.
func (c *Client) Universe(ctx context.Context) ([]model.UniverseAsset, error) {
	q := url.Values{}
	q.Set("status", "active")
	q.Set("asset_class", "us_equity")
	var raw []asset
	if err := c.getJSON(ctx, c.TradingURL, "/v2/assets", q, &raw); err != nil {
		return nil, err
	}
	out := make([]model.UniverseAsset, len(raw))
	for i, a := range raw {
		out[i] = model.UniverseAsset(a)
	}
	return out, nil
}
