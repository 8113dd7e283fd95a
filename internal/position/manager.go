package position

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openquant/helix/internal/core"
	"github.com/openquant/helix/internal/gateway"
	"github.com/openquant/helix/internal/journal"
)

var errNotActionable = errors.New("position: signal is not actionable")

// Manager tracks at most one active Position per symbol and drives the
// lifecycle transitions. All table access goes through the Manager's lock,
// and the has-position check and the slot reservation are a single atomic
// step, so a duplicate entry cannot be opened even if callers run
// evaluations for the same symbol concurrently.
type Manager struct {
	gateway gateway.Gateway
	journal journal.Journal
	logger  *zap.Logger

	mu        sync.RWMutex
	positions map[string]*Position
	reserved  map[string]struct{} // symbols with an entry order in flight
}

// NewManager creates a Manager placing orders through gw and recording
// events to jnl.
func NewManager(gw gateway.Gateway, jnl journal.Journal, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gateway:   gw,
		journal:   jnl,
		logger:    logger,
		positions: make(map[string]*Position),
		reserved:  make(map[string]struct{}),
	}
}

// Has reports whether the symbol currently has an active position or an
// entry order in flight.
func (m *Manager) Has(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.positions[symbol]; ok {
		return true
	}
	_, ok := m.reserved[symbol]
	return ok
}

// Get returns a copy of the symbol's position.
func (m *Manager) Get(symbol string) (Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return *pos, true
}

// Active returns copies of all open positions.
func (m *Manager) Active() []Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Position, 0, len(m.positions))
	for _, pos := range m.positions {
		out = append(out, *pos)
	}
	return out
}

// Count returns the number of open positions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.positions)
}

// OpenFromSignal opens a position for an actionable signal: it reserves the
// symbol's slot, submits the market entry order, and on acceptance places
// the protective stop-loss and target legs independently. A failed leg is
// reported and leaves the respective Placed flag false; it is not retried.
// Returns core.ErrPositionExists if the symbol already holds a position.
func (m *Manager) OpenFromSignal(ctx context.Context, sig core.Signal) (Position, error) {
	if !sig.IsActionable() {
		return Position{}, core.WrapError(core.ErrOrderFailed, errNotActionable)
	}

	// Reserve the slot before any gateway call; this is the invariant check.
	m.mu.Lock()
	if _, ok := m.positions[sig.Symbol]; ok {
		m.mu.Unlock()
		return Position{}, core.ErrPositionExists
	}
	if _, ok := m.reserved[sig.Symbol]; ok {
		m.mu.Unlock()
		return Position{}, core.ErrPositionExists
	}
	m.reserved[sig.Symbol] = struct{}{}
	m.mu.Unlock()

	side := gateway.SideForAction(sig.Action)

	entryID, err := m.gateway.PlaceOrder(ctx, gateway.OrderRequest{
		Symbol:   sig.Symbol,
		Exchange: core.ExchangeNSE,
		Side:     side,
		Type:     gateway.OrderTypeMarket,
		Quantity: sig.Quantity,
		Tag:      "helix_" + string(sig.Action),
	})
	if err != nil {
		m.mu.Lock()
		delete(m.reserved, sig.Symbol)
		m.mu.Unlock()
		return Position{}, core.WrapError(core.ErrOrderFailed, err)
	}

	pos := &Position{
		Symbol:       sig.Symbol,
		EntryOrderID: entryID,
		Side:         side,
		EntryPrice:   sig.EntryPrice,
		StopLoss:     sig.StopLoss,
		Target:       sig.Target,
		Quantity:     sig.Quantity,
		OpenedAt:     time.Now(),
	}

	m.mu.Lock()
	delete(m.reserved, sig.Symbol)
	m.positions[sig.Symbol] = pos
	m.mu.Unlock()

	m.logger.Info("position opened",
		zap.String("symbol", sig.Symbol),
		zap.String("side", string(side)),
		zap.Float64("entry", sig.EntryPrice),
		zap.Float64("stop_loss", sig.StopLoss),
		zap.Float64("target", sig.Target),
		zap.String("order_id", entryID),
	)
	m.record(ctx, core.Event{
		Symbol:   sig.Symbol,
		Kind:     core.EventEntry,
		Action:   sig.Action,
		Price:    sig.EntryPrice,
		Quantity: sig.Quantity,
		OrderID:  entryID,
	})

	m.placeProtection(ctx, pos, sig)

	return *pos, nil
}

// placeProtection places the stop-loss and target legs, each independently.
func (m *Manager) placeProtection(ctx context.Context, pos *Position, sig core.Signal) {
	exitSide := pos.Side.Opposite()

	slID, err := m.gateway.PlaceOrder(ctx, gateway.OrderRequest{
		Symbol:       sig.Symbol,
		Exchange:     core.ExchangeNSE,
		Side:         exitSide,
		Type:         gateway.OrderTypeStopLoss,
		Quantity:     sig.Quantity,
		Price:        sig.StopLoss,
		TriggerPrice: sig.StopLoss,
		Tag:          "helix_SL",
	})
	if err != nil {
		m.logger.Warn("stop-loss placement failed, position unprotected",
			zap.String("symbol", sig.Symbol),
			zap.Error(err),
		)
	} else {
		m.mu.Lock()
		pos.StopLossOrderID = slID
		pos.StopLossPlaced = true
		m.mu.Unlock()
		m.record(ctx, core.Event{
			Symbol:   sig.Symbol,
			Kind:     core.EventStopLossOrder,
			Action:   actionForSide(exitSide),
			Price:    sig.StopLoss,
			Quantity: sig.Quantity,
			OrderID:  slID,
		})
	}

	tgID, err := m.gateway.PlaceOrder(ctx, gateway.OrderRequest{
		Symbol:   sig.Symbol,
		Exchange: core.ExchangeNSE,
		Side:     exitSide,
		Type:     gateway.OrderTypeLimit,
		Quantity: sig.Quantity,
		Price:    sig.Target,
		Tag:      "helix_TARGET",
	})
	if err != nil {
		m.logger.Warn("target placement failed, position unprotected",
			zap.String("symbol", sig.Symbol),
			zap.Error(err),
		)
	} else {
		m.mu.Lock()
		pos.TargetOrderID = tgID
		pos.TargetPlaced = true
		m.mu.Unlock()
		m.record(ctx, core.Event{
			Symbol:   sig.Symbol,
			Kind:     core.EventTargetOrder,
			Action:   actionForSide(exitSide),
			Price:    sig.Target,
			Quantity: sig.Quantity,
			OrderID:  tgID,
		})
	}
}

// CheckExit evaluates the latest price against the symbol's position. When
// a level is crossed the exit is journaled and the position removed, making
// the symbol eligible for a new signal. With no active position this is a
// no-op returning ExitNone.
func (m *Manager) CheckExit(ctx context.Context, symbol string, price float64) ExitKind {
	m.mu.Lock()
	pos, ok := m.positions[symbol]
	if !ok {
		m.mu.Unlock()
		return ExitNone
	}

	kind := pos.exitCheck(price)
	if kind == ExitNone {
		m.mu.Unlock()
		return ExitNone
	}

	closed := *pos
	delete(m.positions, symbol)
	m.mu.Unlock()

	eventKind := core.EventStopLossHit
	if kind == ExitTarget {
		eventKind = core.EventTargetHit
	}

	m.logger.Info("position closed",
		zap.String("symbol", symbol),
		zap.String("exit", string(kind)),
		zap.Float64("price", price),
		zap.Float64("entry", closed.EntryPrice),
	)
	m.record(ctx, core.Event{
		Symbol:   symbol,
		Kind:     eventKind,
		Price:    price,
		Quantity: closed.Quantity,
	})

	return kind
}

// record appends an event to the journal; failures are logged and swallowed
// since journaling must never break the trading path.
func (m *Manager) record(ctx context.Context, event core.Event) {
	if m.journal == nil {
		return
	}
	event.ID = uuid.New().String()
	event.Timestamp = time.Now()
	if err := m.journal.Append(ctx, event); err != nil {
		m.logger.Error("journal append failed",
			zap.String("symbol", event.Symbol),
			zap.String("kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}

func actionForSide(s gateway.OrderSide) core.Action {
	if s == gateway.OrderSideSell {
		return core.ActionSell
	}
	return core.ActionBuy
}
