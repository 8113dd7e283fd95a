package core

import "time"

// Exchange identifies the exchange a symbol trades on.
type Exchange string

const (
	ExchangeNSE Exchange = "NSE"
	ExchangeBSE Exchange = "BSE"
)

// Timeframe is a broker candle interval ("minute", "5minute", "day").
type Timeframe string

const (
	TimeframeMinute  Timeframe = "minute"
	Timeframe5Minute Timeframe = "5minute"
	TimeframeDay     Timeframe = "day"
)

// Candle represents one OHLCV bar as returned by the market-data provider.
// Timestamp stays in the broker's own format; it is treated as an opaque
// sortable string and never parsed into a calendar type.
type Candle struct {
	Timestamp    string
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
	OpenInterest int64
}

// Instrument maps a trading symbol to the broker's instrument token.
type Instrument struct {
	Token          string
	TradingSymbol  string
	Name           string
	Exchange       Exchange
	InstrumentType string
}

// TradeSetting configures one tradable symbol. Loaded once at startup and
// immutable for the rest of the run.
type TradeSetting struct {
	Symbol    string
	Quantity  int64
	Timeframe Timeframe
	EMAPeriod int
}

// IsValid checks if the setting has usable required fields.
func (s TradeSetting) IsValid() bool {
	return s.Symbol != "" && s.Quantity > 0 && s.EMAPeriod > 0
}

// Action represents a trading signal action.
type Action string

const (
	ActionNone Action = ""
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Signal is the outcome of one strategy evaluation: the direction to trade
// plus the price levels for the whole position lifecycle. A Signal with
// ActionNone carries no levels.
type Signal struct {
	Symbol     string
	Action     Action
	EntryPrice float64
	StopLoss   float64
	Target     float64
	Quantity   int64
}

// IsActionable reports whether the signal calls for an order.
func (s Signal) IsActionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}

// EventKind classifies order journal events.
type EventKind string

const (
	// EventEntry records an accepted entry order.
	EventEntry EventKind = "ENTRY"
	// EventStopLossOrder records a protective stop-loss order placement.
	EventStopLossOrder EventKind = "STOPLOSS"
	// EventTargetOrder records a profit-target order placement.
	EventTargetOrder EventKind = "TARGET"
	// EventStopLossHit records an exit through the stop-loss level.
	EventStopLossHit EventKind = "STOPLOSS_HIT"
	// EventTargetHit records an exit through the target level.
	EventTargetHit EventKind = "TARGET_HIT"
)

// Event is one entry in the append-only order journal.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Kind      EventKind `json:"kind"`
	Action    Action    `json:"action,omitempty"`
	Price     float64   `json:"price"`
	Quantity  int64     `json:"quantity,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
}

// IsExit reports whether the event closes a position.
func (e Event) IsExit() bool {
	return e.Kind == EventStopLossHit || e.Kind == EventTargetHit
}
