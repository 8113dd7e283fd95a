// Package marketdata defines the market-data provider boundary.
package marketdata

import (
	"context"
	"time"

	"github.com/openquant/helix/internal/core"
)

// Provider defines the interface for market-data sources. Implementations
// own symbol-to-instrument resolution; callers deal only in trading symbols.
type Provider interface {
	// Name returns the provider identifier (e.g., "kite").
	Name() string

	// FetchCandles returns the ordered candle series for the symbol over
	// [from, to] at the given timeframe. An empty slice with a nil error
	// means the broker had no data for the range.
	FetchCandles(ctx context.Context, symbol string, timeframe core.Timeframe, from, to time.Time) ([]core.Candle, error)

	// LatestPrice returns the most recent traded price for the symbol.
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}
