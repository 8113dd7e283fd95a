// Package engine runs the reconciliation loop that drives the trading
// day: polling market data, evaluating entries and policing open
// positions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openquant/helix/internal/core"
	"github.com/openquant/helix/internal/marketdata"
	"github.com/openquant/helix/internal/metrics"
	"github.com/openquant/helix/internal/position"
	"github.com/openquant/helix/internal/strategy"
)

// Config holds reconciliation loop timing.
type Config struct {
	// TickInterval is the pause between polling cycles during market
	// hours.
	TickInterval time.Duration

	// IdleInterval is the pause between session checks outside market
	// hours.
	IdleInterval time.Duration

	// PerSymbolDelay spaces out broker calls inside one cycle.
	PerSymbolDelay time.Duration

	// LookbackDays is how far back candle history is requested.
	LookbackDays int
}

// Options wires the engine's collaborators.
type Options struct {
	Config    Config
	Session   *Session
	Settings  []core.TradeSetting
	Provider  marketdata.Provider
	Strategy  strategy.Strategy
	Positions *position.Manager
	Metrics   *metrics.Registry
	Logger    *zap.Logger
}

// Engine is the polling orchestrator. One goroutine runs the loop;
// all trading decisions funnel through it.
type Engine struct {
	cfg       Config
	session   *Session
	settings  []core.TradeSetting
	provider  marketdata.Provider
	strategy  strategy.Strategy
	positions *position.Manager
	metrics   *metrics.Registry
	logger    *zap.Logger

	now func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates an engine from the given options.
func New(opts Options) *Engine {
	cfg := opts.Config
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 10 * time.Second
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 5 * time.Minute
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 10
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Metrics
	if reg == nil {
		reg = metrics.NewRegistry()
	}

	e := &Engine{
		cfg:       cfg,
		session:   opts.Session,
		settings:  opts.Settings,
		provider:  opts.Provider,
		strategy:  opts.Strategy,
		positions: opts.Positions,
		metrics:   reg,
		logger:    logger,
		now:       time.Now,
	}
	reg.SetSymbolsTracked(len(e.settings))
	return e
}

// Run starts the polling loop and blocks until the context is
// cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine already running")
	}
	e.running = true

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.logger.Info("engine starting",
		zap.Int("symbols", len(e.settings)),
		zap.String("strategy", e.strategy.Name()),
		zap.Duration("tick_interval", e.cfg.TickInterval),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine shutting down")
			return ctx.Err()
		case <-timer.C:
		}

		interval := e.cfg.IdleInterval
		if e.inSession() {
			e.Tick(ctx)
			interval = e.cfg.TickInterval
		} else {
			e.logger.Debug("market closed, waiting")
		}

		timer.Reset(interval)
	}
}

// Stop cancels a running loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

func (e *Engine) inSession() bool {
	if e.session == nil {
		return true
	}
	return e.session.Contains(e.now())
}

// Tick runs one reconciliation cycle over all configured symbols.
// Symbols with an open position get an exit check against the latest
// price; the rest get a fresh strategy evaluation.
func (e *Engine) Tick(ctx context.Context) {
	start := e.now()

	for i, setting := range e.settings {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && e.cfg.PerSymbolDelay > 0 {
			if err := sleep(ctx, e.cfg.PerSymbolDelay); err != nil {
				return
			}
		}

		if e.positions.Has(setting.Symbol) {
			e.reconcilePosition(ctx, setting.Symbol)
		} else {
			e.evaluateEntry(ctx, setting)
		}
	}

	e.metrics.RecordTick(e.now().Sub(start).Seconds())
	e.metrics.SetOpenPositions(e.positions.Count())
}

// reconcilePosition checks an open position against the latest traded
// price and closes it when a protective level is crossed.
func (e *Engine) reconcilePosition(ctx context.Context, symbol string) {
	price, err := e.provider.LatestPrice(ctx, symbol)
	if err != nil {
		e.metrics.RecordProviderError("ltp")
		e.logger.Warn("latest price fetch failed",
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return
	}

	kind := e.positions.CheckExit(ctx, symbol, price)
	if kind == position.ExitNone {
		return
	}

	e.metrics.RecordExit(string(kind))
	e.logger.Info("position closed",
		zap.String("symbol", symbol),
		zap.String("exit", string(kind)),
		zap.Float64("price", price),
	)
}

// evaluateEntry fetches recent candles, runs the strategy and opens a
// position when the signal is actionable.
func (e *Engine) evaluateEntry(ctx context.Context, setting core.TradeSetting) {
	to := e.now()
	from := to.AddDate(0, 0, -e.cfg.LookbackDays)

	candles, err := e.provider.FetchCandles(ctx, setting.Symbol, setting.Timeframe, from, to)
	if err != nil {
		e.metrics.RecordProviderError("candles")
		e.logger.Warn("candle fetch failed",
			zap.String("symbol", setting.Symbol),
			zap.Error(err),
		)
		return
	}

	sig, err := e.strategy.Evaluate(strategy.Context{Setting: setting, Candles: candles})
	if err != nil {
		if errors.Is(err, core.ErrInsufficientData) {
			e.logger.Debug("not enough candles yet", zap.String("symbol", setting.Symbol))
		} else {
			e.logger.Error("strategy evaluation failed",
				zap.String("symbol", setting.Symbol),
				zap.Error(err),
			)
		}
		return
	}
	if !sig.IsActionable() {
		return
	}

	e.metrics.RecordSignal(sig.Symbol, string(sig.Action))
	e.logger.Info("signal generated",
		zap.String("symbol", sig.Symbol),
		zap.String("action", string(sig.Action)),
		zap.Float64("entry", sig.EntryPrice),
		zap.Float64("stop_loss", sig.StopLoss),
		zap.Float64("target", sig.Target),
	)

	pos, err := e.positions.OpenFromSignal(ctx, sig)
	if err != nil {
		if errors.Is(err, core.ErrPositionExists) {
			e.logger.Debug("position already open", zap.String("symbol", sig.Symbol))
			return
		}
		e.metrics.RecordOrder("entry", "failed")
		e.logger.Error("entry failed",
			zap.String("symbol", sig.Symbol),
			zap.Error(err),
		)
		return
	}

	e.metrics.RecordOrder("entry", "placed")
	e.recordProtection(pos)

	e.logger.Info("position opened",
		zap.String("symbol", pos.Symbol),
		zap.String("order_id", pos.EntryOrderID),
		zap.Bool("protection_complete", !pos.ProtectionIncomplete()),
	)
}

func (e *Engine) recordProtection(pos position.Position) {
	if pos.StopLossPlaced {
		e.metrics.RecordOrder("stop_loss", "placed")
	} else {
		e.metrics.RecordOrder("stop_loss", "failed")
	}
	if pos.TargetPlaced {
		e.metrics.RecordOrder("target", "placed")
	} else {
		e.metrics.RecordOrder("target", "failed")
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
