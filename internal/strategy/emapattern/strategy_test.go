package emapattern

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openquant/helix/internal/core"
	"github.com/openquant/helix/internal/strategy"
	"github.com/openquant/helix/internal/window"
)

// buySnapshot is a textbook long setup: two bullish candles above their EMA
// and a breakout close above the second candle's high.
func buySnapshot() window.Snapshot {
	return window.Snapshot{
		Third:  window.Bar{Open: 10, High: 12.5, Low: 10, Close: 12, EMA: 11},
		Second: window.Bar{Open: 12, High: 14.5, Low: 11.5, Close: 14, EMA: 12},
		Last:   window.Bar{Open: 14, High: 15.2, Low: 13.8, Close: 15, EMA: 13},
	}
}

func sellSnapshot() window.Snapshot {
	return window.Snapshot{
		Third:  window.Bar{Open: 20, High: 20.5, Low: 17.5, Close: 18, EMA: 19},
		Second: window.Bar{Open: 18, High: 18.4, Low: 15.5, Close: 16, EMA: 18},
		Last:   window.Bar{Open: 16, High: 16.2, Low: 14.8, Close: 15, EMA: 17},
	}
}

func TestMatch_Buy(t *testing.T) {
	sig := Match("RELIANCE", buySnapshot(), 5)

	require.Equal(t, core.ActionBuy, sig.Action)
	assert.Equal(t, "RELIANCE", sig.Symbol)
	assert.Equal(t, int64(5), sig.Quantity)
	assert.Equal(t, 15.0, sig.EntryPrice)
	// stop at the lower of the two setup candle lows: min(11.5, 10) = 10
	assert.Equal(t, 10.0, sig.StopLoss)
	// 2:1 reward-to-risk: 15 + 2*(15-10) = 25
	assert.Equal(t, 25.0, sig.Target)
}

func TestMatch_Sell(t *testing.T) {
	sig := Match("RELIANCE", sellSnapshot(), 5)

	require.Equal(t, core.ActionSell, sig.Action)
	assert.Equal(t, 15.0, sig.EntryPrice)
	// stop at the higher of the two setup candle highs: max(18.4, 20.5) = 20.5
	assert.Equal(t, 20.5, sig.StopLoss)
	// 15 - 2*(20.5-15) = 4
	assert.Equal(t, 4.0, sig.Target)
}

func TestMatch_NoSignalWithoutBreakout(t *testing.T) {
	snap := buySnapshot()
	// close back below the second candle's high: setup intact, no trigger
	snap.Last.Close = 14.2
	snap.Last.EMA = 13

	sig := Match("RELIANCE", snap, 5)
	assert.Equal(t, core.ActionNone, sig.Action)
	assert.Zero(t, sig.EntryPrice)
	assert.Zero(t, sig.StopLoss)
	assert.Zero(t, sig.Target)
}

func TestMatch_NoSignalBelowEMA(t *testing.T) {
	snap := buySnapshot()
	snap.Second.EMA = snap.Second.Close + 1

	sig := Match("RELIANCE", snap, 5)
	assert.Equal(t, core.ActionNone, sig.Action)
}

func TestMatch_Deterministic(t *testing.T) {
	snap := buySnapshot()
	first := Match("INFY", snap, 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Match("INFY", snap, 3))
	}
}

// The BUY rule requires bullish setup candles and the SELL rule bearish
// ones, so no snapshot may satisfy both. Verified over randomized bars.
func TestMatch_MutuallyExclusive(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	randomBar := func() window.Bar {
		base := 50 + rng.Float64()*100
		return window.Bar{
			Open:  base + rng.Float64()*10 - 5,
			High:  base + rng.Float64()*10,
			Low:   base - rng.Float64()*10,
			Close: base + rng.Float64()*10 - 5,
			EMA:   base + rng.Float64()*6 - 3,
		}
	}

	buyHolds := func(s window.Snapshot) bool {
		return s.Third.Open < s.Third.Close && s.Second.Open < s.Second.Close &&
			s.Second.Close > s.Second.EMA && s.Third.Close > s.Third.EMA &&
			s.Last.Close > s.Last.EMA && s.Last.Close > s.Second.High
	}
	sellHolds := func(s window.Snapshot) bool {
		return s.Third.Open > s.Third.Close && s.Second.Open > s.Second.Close &&
			s.Second.Close < s.Second.EMA && s.Third.Close < s.Third.EMA &&
			s.Last.Close < s.Last.EMA && s.Last.Close < s.Second.Low
	}

	var buys, sells int
	for i := 0; i < 10000; i++ {
		snap := window.Snapshot{Third: randomBar(), Second: randomBar(), Last: randomBar()}

		if buyHolds(snap) && sellHolds(snap) {
			t.Fatalf("snapshot satisfies both rules: %+v", snap)
		}

		switch Match("X", snap, 1).Action {
		case core.ActionBuy:
			assert.True(t, buyHolds(snap))
			buys++
		case core.ActionSell:
			assert.True(t, sellHolds(snap))
			sells++
		}
	}

	t.Logf("random snapshots: %d buys, %d sells", buys, sells)
}

func TestEvaluate_InsufficientData(t *testing.T) {
	s := New()
	sig, err := s.Evaluate(strategy.Context{
		Setting: core.TradeSetting{Symbol: "TCS", Quantity: 1, Timeframe: core.Timeframe5Minute, EMAPeriod: 20},
		Candles: []core.Candle{
			{Open: 10, High: 11, Low: 9, Close: 10.5},
			{Open: 10.5, High: 11.5, Low: 10, Close: 11},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, core.ActionNone, sig.Action)
	assert.Equal(t, "TCS", sig.Symbol)
}

func TestEvaluate_InvalidSetting(t *testing.T) {
	s := New()
	_, err := s.Evaluate(strategy.Context{
		Setting: core.TradeSetting{Symbol: "TCS"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestEvaluate_BuyFromCandles(t *testing.T) {
	// a flat history followed by a strong two-candle advance and breakout
	candles := []core.Candle{
		{Open: 100, High: 101, Low: 99, Close: 100},
		{Open: 100, High: 101, Low: 99, Close: 100},
		{Open: 100, High: 101, Low: 99, Close: 100},
		{Open: 100, High: 104, Low: 100, Close: 104},
		{Open: 104, High: 108, Low: 103, Close: 108},
		{Open: 108, High: 113, Low: 107, Close: 112},
	}

	s := New()
	sig, err := s.Evaluate(strategy.Context{
		Setting: core.TradeSetting{Symbol: "SBIN", Quantity: 10, Timeframe: core.Timeframe5Minute, EMAPeriod: 3},
		Candles: candles,
	})

	require.NoError(t, err)
	require.Equal(t, core.ActionBuy, sig.Action)
	assert.Equal(t, 112.0, sig.EntryPrice)
	assert.Equal(t, 100.0, sig.StopLoss) // min(low of 4th, low of 5th) = min(100, 103)
	assert.Equal(t, 136.0, sig.Target)
	assert.Equal(t, int64(10), sig.Quantity)
}

func TestName(t *testing.T) {
	s := New()
	assert.Equal(t, "ema_pattern", s.Name())
	assert.NotEmpty(t, s.Description())
}
