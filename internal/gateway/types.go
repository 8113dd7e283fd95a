// Package gateway provides types and interfaces for order placement.
package gateway

import (
	"context"
	"errors"

	"github.com/openquant/helix/internal/core"
)

// Gateway-specific errors.
var (
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("gateway: invalid symbol")
	// ErrInvalidQuantity indicates an invalid quantity.
	ErrInvalidQuantity = errors.New("gateway: invalid quantity")
	// ErrInvalidPrice indicates an invalid price for limit orders.
	ErrInvalidPrice = errors.New("gateway: invalid price for limit order")
	// ErrInvalidTriggerPrice indicates an invalid trigger price for stop orders.
	ErrInvalidTriggerPrice = errors.New("gateway: invalid trigger price for stop order")
	// ErrOrderRejected indicates the broker rejected the order.
	ErrOrderRejected = errors.New("gateway: order rejected")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	// OrderSideBuy represents a buy order.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell represents a sell order.
	OrderSideSell OrderSide = "SELL"
)

// Opposite returns the other side, used for protective exit orders.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}
	return OrderSideBuy
}

// SideForAction maps a signal action to an order side.
func SideForAction(a core.Action) OrderSide {
	if a == core.ActionSell {
		return OrderSideSell
	}
	return OrderSideBuy
}

// OrderType represents the type of order execution.
type OrderType string

const (
	// OrderTypeMarket executes at current market price.
	OrderTypeMarket OrderType = "MARKET"
	// OrderTypeLimit executes at the specified price or better.
	OrderTypeLimit OrderType = "LIMIT"
	// OrderTypeStopLoss triggers when the trigger price is reached.
	OrderTypeStopLoss OrderType = "SL"
)

// OrderRequest represents a request to place a new order.
type OrderRequest struct {
	// Symbol is the trading symbol (e.g., "RELIANCE").
	Symbol string
	// Exchange identifies the exchange the order is routed to.
	Exchange core.Exchange
	// Side indicates buy or sell.
	Side OrderSide
	// Type specifies the order execution type.
	Type OrderType
	// Quantity is the number of shares to trade.
	Quantity int64
	// Price is the limit price (required for LIMIT and SL orders).
	Price float64
	// TriggerPrice is the stop trigger (required for SL orders).
	TriggerPrice float64
	// Tag is an optional broker-side label for the order.
	Tag string
}

// Validate checks if the order request has valid required fields.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if r.Type == OrderTypeLimit && r.Price <= 0 {
		return ErrInvalidPrice
	}
	if r.Type == OrderTypeStopLoss && r.TriggerPrice <= 0 {
		return ErrInvalidTriggerPrice
	}
	return nil
}

// Gateway defines the interface for order placement. PlaceOrder returns the
// broker-assigned order ID on acceptance; any error means no order exists.
type Gateway interface {
	// Name returns the gateway identifier (e.g., "kite").
	Name() string

	// PlaceOrder submits an order and returns the broker order ID.
	PlaceOrder(ctx context.Context, request OrderRequest) (string, error)
}
