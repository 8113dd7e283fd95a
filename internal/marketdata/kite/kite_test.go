package kite

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openquant/helix/internal/core"
)

const instrumentDump = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
408065,1594,INFY,INFOSYS,1520.5,,0,0.05,1,EQ,NSE,NSE
738561,2885,RELIANCE,RELIANCE INDUSTRIES,2890.1,,0,0.05,1,EQ,NSE,NSE
`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Kite) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewWithBaseURL("key", "token", srv.URL)
}

func TestLoadInstruments(t *testing.T) {
	_, k := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/instruments/NSE" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "token key:token" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		fmt.Fprint(w, instrumentDump)
	})

	if err := k.LoadInstruments(context.Background()); err != nil {
		t.Fatalf("LoadInstruments failed: %v", err)
	}
	if got := k.InstrumentCount(); got != 2 {
		t.Errorf("expected 2 instruments, got %d", got)
	}

	matched, missing := k.ResolveSymbols([]string{"INFY", "RELIANCE", "NOSUCH"})
	if len(matched) != 2 {
		t.Errorf("expected 2 matched symbols, got %v", matched)
	}
	if len(missing) != 1 || missing[0] != "NOSUCH" {
		t.Errorf("expected NOSUCH missing, got %v", missing)
	}
}

func TestLoadInstruments_HTTPError(t *testing.T) {
	_, k := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	err := k.LoadInstruments(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestFetchCandles(t *testing.T) {
	_, k := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/instruments/NSE" {
			fmt.Fprint(w, instrumentDump)
			return
		}
		if r.URL.Path != "/instruments/historical/408065/5minute" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if from := r.URL.Query().Get("from"); from == "" {
			t.Error("missing from parameter")
		}
		fmt.Fprint(w, `{"status":"success","data":{"candles":[
			["2025-08-29T09:15:00+0530",100.5,101.2,100.1,100.9,12000,350],
			["2025-08-29T09:20:00+0530",100.9,101.8,100.7,101.5,9800,360]
		]}}`)
	})

	if err := k.LoadInstruments(context.Background()); err != nil {
		t.Fatalf("LoadInstruments failed: %v", err)
	}

	candles, err := k.FetchCandles(context.Background(), "INFY", core.Timeframe5Minute,
		time.Now().Add(-24*time.Hour), time.Now())
	if err != nil {
		t.Fatalf("FetchCandles failed: %v", err)
	}

	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	first := candles[0]
	if first.Timestamp != "2025-08-29T09:15:00+0530" {
		t.Errorf("unexpected timestamp: %s", first.Timestamp)
	}
	if first.Open != 100.5 || first.Close != 100.9 {
		t.Errorf("unexpected OHLC: %+v", first)
	}
	if first.Volume != 12000 || first.OpenInterest != 350 {
		t.Errorf("unexpected volume/oi: %+v", first)
	}
}

func TestFetchCandles_UnknownSymbol(t *testing.T) {
	_, k := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, instrumentDump)
	})
	if err := k.LoadInstruments(context.Background()); err != nil {
		t.Fatalf("LoadInstruments failed: %v", err)
	}

	_, err := k.FetchCandles(context.Background(), "NOSUCH", core.Timeframe5Minute,
		time.Now().Add(-time.Hour), time.Now())
	if err == nil {
		t.Fatal("expected error for unresolved symbol")
	}
}

func TestFetchCandles_KiteError(t *testing.T) {
	_, k := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/instruments/NSE" {
			fmt.Fprint(w, instrumentDump)
			return
		}
		fmt.Fprint(w, `{"status":"error","message":"invalid token"}`)
	})
	if err := k.LoadInstruments(context.Background()); err != nil {
		t.Fatalf("LoadInstruments failed: %v", err)
	}

	_, err := k.FetchCandles(context.Background(), "INFY", core.Timeframe5Minute,
		time.Now().Add(-time.Hour), time.Now())
	if err == nil {
		t.Fatal("expected error for kite error status")
	}
}

func TestLatestPrice(t *testing.T) {
	_, k := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote/ltp" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if i := r.URL.Query().Get("i"); i != "NSE:INFY" {
			t.Errorf("unexpected instrument param: %s", i)
		}
		fmt.Fprint(w, `{"status":"success","data":{"NSE:INFY":{"instrument_token":408065,"last_price":1520.85}}}`)
	})

	price, err := k.LatestPrice(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("LatestPrice failed: %v", err)
	}
	if price != 1520.85 {
		t.Errorf("expected 1520.85, got %v", price)
	}
}

func TestName(t *testing.T) {
	if New("k", "t").Name() != "kite" {
		t.Error("unexpected provider name")
	}
}
