// Package mock provides a scriptable market-data provider for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/openquant/helix/internal/core"
	"github.com/openquant/helix/internal/marketdata"
)

// Provider implements marketdata.Provider with canned data per symbol.
type Provider struct {
	mu      sync.RWMutex
	candles map[string][]core.Candle
	prices  map[string]float64

	// Errors returned on the next call, keyed by symbol.
	candleErr map[string]error
	priceErr  map[string]error

	fetchCalls int
	priceCalls int
}

var _ marketdata.Provider = (*Provider)(nil)

// New creates an empty mock provider.
func New() *Provider {
	return &Provider{
		candles:   make(map[string][]core.Candle),
		prices:    make(map[string]float64),
		candleErr: make(map[string]error),
		priceErr:  make(map[string]error),
	}
}

func (p *Provider) Name() string {
	return "mock"
}

// SetCandles sets the candle series returned for a symbol.
func (p *Provider) SetCandles(symbol string, candles []core.Candle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candles[symbol] = candles
}

// SetPrice sets the latest price returned for a symbol.
func (p *Provider) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

// FailCandles makes FetchCandles return err for the symbol.
func (p *Provider) FailCandles(symbol string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candleErr[symbol] = err
}

// FailPrice makes LatestPrice return err for the symbol.
func (p *Provider) FailPrice(symbol string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.priceErr[symbol] = err
}

func (p *Provider) FetchCandles(ctx context.Context, symbol string, timeframe core.Timeframe, from, to time.Time) ([]core.Candle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fetchCalls++
	if err := p.candleErr[symbol]; err != nil {
		return nil, err
	}
	return p.candles[symbol], nil
}

func (p *Provider) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.priceCalls++
	if err := p.priceErr[symbol]; err != nil {
		return 0, err
	}
	if price, ok := p.prices[symbol]; ok {
		return price, nil
	}
	return 0, core.ErrNoData
}

// FetchCalls returns how many times FetchCandles was invoked.
func (p *Provider) FetchCalls() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fetchCalls
}

// PriceCalls returns how many times LatestPrice was invoked.
func (p *Provider) PriceCalls() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.priceCalls
}
