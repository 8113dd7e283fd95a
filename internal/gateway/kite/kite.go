// Package kite implements the order gateway for the Zerodha Kite Connect
// REST API. All orders are intraday (product MIS, validity DAY).
package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openquant/helix/internal/core"
	"github.com/openquant/helix/internal/gateway"
)

const baseURL = "https://api.kite.trade"

// Kite implements the order gateway backed by the Kite Connect API.
type Kite struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	accessToken string
}

var _ gateway.Gateway = (*Kite)(nil)

// New creates a new Kite order gateway.
func New(apiKey, accessToken string) *Kite {
	return &Kite{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		apiKey:      apiKey,
		accessToken: accessToken,
	}
}

// NewWithBaseURL creates a Kite gateway with a custom base URL (for testing).
func NewWithBaseURL(apiKey, accessToken, url string) *Kite {
	k := New(apiKey, accessToken)
	k.baseURL = url
	return k
}

func (k *Kite) Name() string {
	return "kite"
}

// orderResponse mirrors the Kite order placement envelope.
type orderResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		OrderID string `json:"order_id"`
	} `json:"data"`
}

// PlaceOrder submits a regular order. The request is form-encoded per the
// Kite Connect API; on success the broker order ID is returned.
func (k *Kite) PlaceOrder(ctx context.Context, request gateway.OrderRequest) (string, error) {
	if err := request.Validate(); err != nil {
		return "", err
	}

	exchange := request.Exchange
	if exchange == "" {
		exchange = core.ExchangeNSE
	}

	form := url.Values{}
	form.Set("tradingsymbol", request.Symbol)
	form.Set("exchange", string(exchange))
	form.Set("transaction_type", string(request.Side))
	form.Set("order_type", string(request.Type))
	form.Set("quantity", strconv.FormatInt(request.Quantity, 10))
	form.Set("product", "MIS")
	form.Set("validity", "DAY")
	if request.Price > 0 {
		form.Set("price", strconv.FormatFloat(request.Price, 'f', 2, 64))
	}
	if request.TriggerPrice > 0 {
		form.Set("trigger_price", strconv.FormatFloat(request.TriggerPrice, 'f', 2, 64))
	}
	if request.Tag != "" {
		form.Set("tag", request.Tag)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		k.baseURL+"/orders/regular", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", k.apiKey, k.accessToken))

	resp, err := k.client.Do(req)
	if err != nil {
		return "", core.WrapError(core.ErrOrderFailed, err)
	}
	defer resp.Body.Close()

	var result orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", core.WrapError(core.ErrOrderFailed, fmt.Errorf("decoding response: %w", err))
	}

	if resp.StatusCode != http.StatusOK || result.Status != "success" {
		return "", core.WrapError(core.ErrOrderFailed,
			fmt.Errorf("%w: status %d: %s", gateway.ErrOrderRejected, resp.StatusCode, result.Message))
	}
	if result.Data.OrderID == "" {
		return "", core.WrapError(core.ErrOrderFailed, fmt.Errorf("empty order id in response"))
	}

	return result.Data.OrderID, nil
}
