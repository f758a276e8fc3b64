// Package broker defines the order-routing surface the position manager trades through.
package broker

import (
	"context"

	"NewsSentinel/internal/model"
)

// Broker is the brokerage account the bot trades in.
type Broker interface {
	// OpenPositions lists every open position in the account.
	OpenPositions(ctx context.Context) ([]model.BrokerPosition, error)
	// Position returns the live position for symbol, or errors.ErrPositionNotFound.
	Position(ctx context.Context, symbol string) (model.BrokerPosition, error)
	// SubmitMarketOrder places a market order.
	SubmitMarketOrder(ctx context.Context, req model.OrderRequest) (model.Order, error)
	// ClosePosition liquidates the whole position for symbol.
	ClosePosition(ctx context.Context, symbol string) (model.Order, error)
}
