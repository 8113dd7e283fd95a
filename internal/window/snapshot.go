// Package window extracts fixed-size views over candle series.
package window

import "github.com/openquant/helix/internal/core"

// Bar is one candle of a Snapshot together with its EMA value.
type Bar struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	EMA   float64
}

// Snapshot holds the three most recent candles of a series, oldest first.
// Third is the oldest of the three, Last the most recent.
type Snapshot struct {
	Third  Bar
	Second Bar
	Last   Bar
}

// LastThree builds a Snapshot from the three most recent entries of a candle
// series and its index-aligned EMA series. It returns ok=false when fewer
// than three aligned points exist; that is the normal "insufficient data"
// outcome, not an error.
func LastThree(candles []core.Candle, ema []float64) (Snapshot, bool) {
	n := len(candles)
	if len(ema) < n {
		n = len(ema)
	}
	if n < 3 {
		return Snapshot{}, false
	}

	bar := func(i int) Bar {
		return Bar{
			Open:  candles[i].Open,
			High:  candles[i].High,
			Low:   candles[i].Low,
			Close: candles[i].Close,
			EMA:   ema[i],
		}
	}

	return Snapshot{
		Third:  bar(n - 3),
		Second: bar(n - 2),
		Last:   bar(n - 1),
	}, true
}
