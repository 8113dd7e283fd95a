package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/openquant/helix/internal/core"
)

// EventsCSV renders journal events as CSV, one row per event.
func EventsCSV(events []core.Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "timestamp", "symbol", "kind", "action", "price", "quantity", "order_id"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, ev := range events {
		row := []string{
			ev.ID,
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			ev.Symbol,
			string(ev.Kind),
			string(ev.Action),
			strconv.FormatFloat(ev.Price, 'f', 2, 64),
			strconv.FormatInt(ev.Quantity, 10),
			ev.OrderID,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// InstrumentsCSV renders the instrument master as CSV.
func InstrumentsCSV(instruments []core.Instrument) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"token", "tradingsymbol", "name", "exchange", "instrument_type"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, ins := range instruments {
		row := []string{
			ins.Token,
			ins.TradingSymbol,
			ins.Name,
			string(ins.Exchange),
			ins.InstrumentType,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportEvents renders events as CSV and stores the result at path.
func ExportEvents(ctx context.Context, store Store, path string, events []core.Event) error {
	data, err := EventsCSV(events)
	if err != nil {
		return fmt.Errorf("rendering events: %w", err)
	}
	return store.Put(ctx, path, data)
}

// ExportInstruments renders the instrument master as CSV and stores
// the result at path.
func ExportInstruments(ctx context.Context, store Store, path string, instruments []core.Instrument) error {
	data, err := InstrumentsCSV(instruments)
	if err != nil {
		return fmt.Errorf("rendering instruments: %w", err)
	}
	return store.Put(ctx, path, data)
}
