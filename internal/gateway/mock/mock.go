// Package mock provides an in-memory order gateway for tests.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/openquant/helix/internal/gateway"
)

// Gateway implements gateway.Gateway, recording every request and assigning
// sequential order IDs. Failures can be scripted per order tag or globally.
type Gateway struct {
	mu       sync.Mutex
	orders   []gateway.OrderRequest
	orderSeq int

	failAll    error
	failByType map[gateway.OrderType]error
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a new mock gateway.
func New() *Gateway {
	return &Gateway{
		orderSeq:   1000,
		failByType: make(map[gateway.OrderType]error),
	}
}

func (g *Gateway) Name() string {
	return "mock"
}

// FailAll makes every PlaceOrder call return err (nil clears it).
func (g *Gateway) FailAll(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failAll = err
}

// FailOrderType makes PlaceOrder fail for one order type only.
func (g *Gateway) FailOrderType(t gateway.OrderType, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failByType[t] = err
}

func (g *Gateway) PlaceOrder(ctx context.Context, request gateway.OrderRequest) (string, error) {
	if err := request.Validate(); err != nil {
		return "", err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failAll != nil {
		return "", g.failAll
	}
	if err := g.failByType[request.Type]; err != nil {
		return "", err
	}

	g.orderSeq++
	g.orders = append(g.orders, request)
	return fmt.Sprintf("mock-%d", g.orderSeq), nil
}

// Orders returns a copy of all accepted order requests.
func (g *Gateway) Orders() []gateway.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]gateway.OrderRequest, len(g.orders))
	copy(out, g.orders)
	return out
}

// LastOrder returns the most recently accepted request, or false when none.
func (g *Gateway) LastOrder() (gateway.OrderRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.orders) == 0 {
		return gateway.OrderRequest{}, false
	}
	return g.orders[len(g.orders)-1], true
}
