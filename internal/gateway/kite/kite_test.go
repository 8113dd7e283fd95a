package kite

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openquant/helix/internal/gateway"
)

func TestPlaceOrder(t *testing.T) {
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders/regular" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "token key:token" {
			t.Errorf("unexpected auth header: %s", auth)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}
		fmt.Fprint(w, `{"status":"success","data":{"order_id":"240829000123456"}}`)
	}))
	defer srv.Close()

	k := NewWithBaseURL("key", "token", srv.URL)

	orderID, err := k.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "RELIANCE",
		Side:     gateway.OrderSideBuy,
		Type:     gateway.OrderTypeMarket,
		Quantity: 5,
		Tag:      "helix_entry",
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if orderID != "240829000123456" {
		t.Errorf("unexpected order id: %s", orderID)
	}

	want := map[string]string{
		"tradingsymbol":    "RELIANCE",
		"exchange":         "NSE",
		"transaction_type": "BUY",
		"order_type":       "MARKET",
		"quantity":         "5",
		"product":          "MIS",
		"validity":         "DAY",
		"tag":              "helix_entry",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, gotForm[k], v)
		}
	}
}

func TestPlaceOrder_StopLossFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if ot := r.PostForm.Get("order_type"); ot != "SL" {
			t.Errorf("order_type = %q, want SL", ot)
		}
		if tp := r.PostForm.Get("trigger_price"); tp != "98.50" {
			t.Errorf("trigger_price = %q, want 98.50", tp)
		}
		if p := r.PostForm.Get("price"); p != "98.50" {
			t.Errorf("price = %q, want 98.50", p)
		}
		fmt.Fprint(w, `{"status":"success","data":{"order_id":"240829000123457"}}`)
	}))
	defer srv.Close()

	k := NewWithBaseURL("key", "token", srv.URL)

	_, err := k.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:       "INFY",
		Side:         gateway.OrderSideSell,
		Type:         gateway.OrderTypeStopLoss,
		Quantity:     1,
		Price:        98.5,
		TriggerPrice: 98.5,
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
}

func TestPlaceOrder_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"status":"error","message":"Insufficient funds"}`)
	}))
	defer srv.Close()

	k := NewWithBaseURL("key", "token", srv.URL)

	_, err := k.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "INFY",
		Side:     gateway.OrderSideBuy,
		Type:     gateway.OrderTypeMarket,
		Quantity: 1,
	})
	if err == nil {
		t.Fatal("expected error for rejected order")
	}
}

func TestPlaceOrder_InvalidRequest(t *testing.T) {
	k := New("key", "token")

	_, err := k.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol:   "",
		Quantity: 1,
	})
	if err != gateway.ErrInvalidSymbol {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}

	_, err = k.PlaceOrder(context.Background(), gateway.OrderRequest{
		Symbol: "INFY",
		Type:   gateway.OrderTypeStopLoss,
	})
	if err != gateway.ErrInvalidQuantity {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}
}
