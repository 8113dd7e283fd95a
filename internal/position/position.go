// Package position owns the per-symbol position lifecycle: entry, protective
// orders, and exit detection. The Manager is the single writer of the active
// position table; no other component creates, mutates, or removes a Position.
package position

import (
	"time"

	"github.com/openquant/helix/internal/gateway"
)

// Position is one live trade: the accepted entry order plus its protective
// levels. It exists from entry acceptance until an exit level is hit.
type Position struct {
	// Symbol is the trading symbol.
	Symbol string
	// EntryOrderID is the broker ID of the accepted entry order.
	EntryOrderID string
	// StopLossOrderID is the broker ID of the protective stop order, if placed.
	StopLossOrderID string
	// TargetOrderID is the broker ID of the profit-target order, if placed.
	TargetOrderID string
	// Side is the entry direction.
	Side gateway.OrderSide
	// EntryPrice is the signal's entry level.
	EntryPrice float64
	// StopLoss is the protective exit level.
	StopLoss float64
	// Target is the profit exit level.
	Target float64
	// Quantity is the position size in shares.
	Quantity int64
	// StopLossPlaced reports whether the stop-loss leg was accepted.
	StopLossPlaced bool
	// TargetPlaced reports whether the target leg was accepted.
	TargetPlaced bool
	// OpenedAt is when the entry order was accepted.
	OpenedAt time.Time
}

// ProtectionIncomplete reports whether one or both protective legs failed to
// place. Such a position stays open and is never retried automatically; the
// flag exists so operators can detect the naked exposure.
func (p Position) ProtectionIncomplete() bool {
	return !p.StopLossPlaced || !p.TargetPlaced
}

// ExitKind classifies how a position closed.
type ExitKind string

const (
	// ExitNone means no exit level was crossed.
	ExitNone ExitKind = ""
	// ExitStopLoss means the stop-loss level was crossed.
	ExitStopLoss ExitKind = "stop_loss"
	// ExitTarget means the target level was crossed.
	ExitTarget ExitKind = "target"
)

// exitCheck evaluates the latest close against the position's levels.
// Stop-loss takes precedence when both could be read as crossed.
func (p Position) exitCheck(price float64) ExitKind {
	if p.Side == gateway.OrderSideBuy {
		if price <= p.StopLoss {
			return ExitStopLoss
		}
		if price >= p.Target {
			return ExitTarget
		}
		return ExitNone
	}

	if price >= p.StopLoss {
		return ExitStopLoss
	}
	if price <= p.Target {
		return ExitTarget
	}
	return ExitNone
}
