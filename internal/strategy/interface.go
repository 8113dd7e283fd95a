package strategy

import (
	"github.com/openquant/helix/internal/core"
)

// Context provides the data a strategy evaluates for one symbol.
type Context struct {
	Setting core.TradeSetting
	Candles []core.Candle
}

// Strategy defines the interface for trading strategies.
// Evaluate must be deterministic for fixed inputs and free of side effects.
// Insufficient data is reported as a Signal with ActionNone, not as an error.
type Strategy interface {
	Name() string
	Description() string
	Evaluate(ctx Context) (core.Signal, error)
}
