// Package emapattern implements a three-candle EMA continuation pattern.
//
// A BUY fires after two consecutive bullish candles that closed above their
// EMA, confirmed by the latest close breaking above the previous candle's
// high while staying above its own EMA. The SELL rule is the mirror image.
// The stop-loss sits at the far extreme of the two setup candles and the
// target is placed at twice the entry risk (fixed 2:1 reward-to-risk).
package emapattern

import (
	"fmt"

	"github.com/openquant/helix/internal/core"
	"github.com/openquant/helix/internal/indicator"
	"github.com/openquant/helix/internal/strategy"
	"github.com/openquant/helix/internal/window"
)

// EMAPattern implements the three-candle EMA pattern strategy.
type EMAPattern struct{}

// New creates a new EMAPattern strategy.
func New() *EMAPattern {
	return &EMAPattern{}
}

func (e *EMAPattern) Name() string {
	return "ema_pattern"
}

func (e *EMAPattern) Description() string {
	return "Three-candle EMA continuation with 2:1 reward-to-risk"
}

// Evaluate computes the EMA for the setting's period, takes the last three
// candles and applies the pattern rule. With fewer than three aligned
// candle/EMA points it returns an ActionNone signal.
func (e *EMAPattern) Evaluate(ctx strategy.Context) (core.Signal, error) {
	if !ctx.Setting.IsValid() {
		return core.Signal{}, core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("trade setting for %q", ctx.Setting.Symbol))
	}

	prices := make([]float64, len(ctx.Candles))
	for i, c := range ctx.Candles {
		prices[i] = c.Close
	}

	ema := indicator.EMA(prices, ctx.Setting.EMAPeriod)

	snap, ok := window.LastThree(ctx.Candles, ema)
	if !ok {
		return core.Signal{Symbol: ctx.Setting.Symbol, Action: core.ActionNone}, nil
	}

	return Match(ctx.Setting.Symbol, snap, ctx.Setting.Quantity), nil
}

// Match applies the pattern rule to a snapshot. It is a pure function: the
// same snapshot always yields the same signal. The BUY and SELL conditions
// are mutually exclusive by construction (they require opposite candle
// bodies), so at most one branch fires.
func Match(symbol string, snap window.Snapshot, quantity int64) core.Signal {
	sig := core.Signal{
		Symbol:   symbol,
		Action:   core.ActionNone,
		Quantity: quantity,
	}

	third, second, last := snap.Third, snap.Second, snap.Last

	switch {
	case third.Open < third.Close &&
		second.Open < second.Close &&
		second.Close > second.EMA &&
		third.Close > third.EMA &&
		last.Close > last.EMA &&
		last.Close > second.High:

		sig.Action = core.ActionBuy
		sig.EntryPrice = last.Close
		sig.StopLoss = min(second.Low, third.Low)
		sig.Target = sig.EntryPrice + 2*(sig.EntryPrice-sig.StopLoss)

	case third.Open > third.Close &&
		second.Open > second.Close &&
		second.Close < second.EMA &&
		third.Close < third.EMA &&
		last.Close < last.EMA &&
		last.Close < second.Low:

		sig.Action = core.ActionSell
		sig.EntryPrice = last.Close
		sig.StopLoss = max(second.High, third.High)
		sig.Target = sig.EntryPrice - 2*(sig.StopLoss-sig.EntryPrice)
	}

	return sig
}
