package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openquant/helix/internal/core"
)

func TestLocalFS_ImplementsStore(t *testing.T) {
	var _ Store = (*LocalFS)(nil)
}

func TestS3Store_ImplementsStore(t *testing.T) {
	var _ Store = (*S3Store)(nil)
}

func TestLocalFS_PutGet(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "journal/2026-08-31.csv", []byte("hello")))

	data, err := store.Get(ctx, "journal/2026-08-31.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestLocalFS_Exists(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()

	ok, err := store.Exists(ctx, "missing.csv")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "present.csv", []byte("x")))
	ok, err = store.Exists(ctx, "present.csv")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLocalFS_List(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "journal/a.csv", []byte("a")))
	require.NoError(t, store.Put(ctx, "journal/b.csv", []byte("b")))
	require.NoError(t, store.Put(ctx, "instruments/nse.csv", []byte("c")))

	paths, err := store.List(ctx, "journal")
	require.NoError(t, err)
	assert.Len(t, paths, 2)

	paths, err = store.List(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestLocalFS_Delete(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "gone.csv", []byte("x")))
	require.NoError(t, store.Delete(ctx, "gone.csv"))

	ok, err := store.Exists(ctx, "gone.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestS3Store_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.csv", "file.csv"},
		{"archive", "file.csv", "archive/file.csv"},
	}

	for _, tt := range tests {
		s := &S3Store{prefix: tt.prefix}
		assert.Equal(t, tt.want, s.key(tt.path))
	}
}

func TestEventsCSV(t *testing.T) {
	events := []core.Event{
		{
			ID:        "ev-1",
			Timestamp: time.Date(2026, 8, 31, 10, 15, 0, 0, time.UTC),
			Symbol:    "RELIANCE",
			Kind:      core.EventEntry,
			Action:    core.ActionBuy,
			Price:     2500.5,
			Quantity:  2,
			OrderID:   "order-1",
		},
		{
			ID:        "ev-2",
			Timestamp: time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC),
			Symbol:    "RELIANCE",
			Kind:      core.EventTargetHit,
			Price:     2550,
		},
	}

	data, err := EventsCSV(events)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,timestamp,symbol,kind,action,price,quantity,order_id", lines[0])
	assert.Equal(t, "ev-1,2026-08-31 10:15:00,RELIANCE,ENTRY,BUY,2500.50,2,order-1", lines[1])
	assert.Equal(t, "ev-2,2026-08-31 11:00:00,RELIANCE,TARGET_HIT,,2550.00,0,", lines[2])
}

func TestInstrumentsCSV(t *testing.T) {
	instruments := []core.Instrument{
		{Token: "738561", TradingSymbol: "RELIANCE", Name: "RELIANCE INDUSTRIES", Exchange: core.ExchangeNSE, InstrumentType: "EQ"},
	}

	data, err := InstrumentsCSV(instruments)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "738561,RELIANCE,RELIANCE INDUSTRIES,NSE,EQ", lines[1])
}

func TestExportEvents(t *testing.T) {
	store, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	events := []core.Event{{ID: "ev-1", Symbol: "INFY", Kind: core.EventEntry, Action: core.ActionBuy, Price: 1500, Quantity: 1}}
	require.NoError(t, ExportEvents(ctx, store, "journal/today.csv", events))

	data, err := store.Get(ctx, "journal/today.csv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFY")
}
