// Package kite implements the market-data provider for the Zerodha Kite
// Connect REST API.
package kite

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/openquant/helix/internal/core"
)

const (
	baseURL = "https://api.kite.trade"

	// kiteTimeLayout is the from/to format the historical endpoint expects.
	kiteTimeLayout = "2006-01-02 15:04:05"
)

// Kite implements the market-data Provider backed by the Kite Connect API.
// The historical endpoint is keyed by instrument token, so the client keeps
// a symbol-to-instrument cache populated by LoadInstruments.
type Kite struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	accessToken string

	mu          sync.RWMutex
	instruments map[string]core.Instrument // trading symbol -> instrument
}

// New creates a new Kite market-data client.
func New(apiKey, accessToken string) *Kite {
	return &Kite{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		apiKey:      apiKey,
		accessToken: accessToken,
		instruments: make(map[string]core.Instrument),
	}
}

// NewWithBaseURL creates a Kite client with a custom base URL (for testing).
func NewWithBaseURL(apiKey, accessToken, url string) *Kite {
	k := New(apiKey, accessToken)
	k.baseURL = url
	return k
}

func (k *Kite) Name() string {
	return "kite"
}

// authHeader is the Kite Connect token header: "token api_key:access_token".
func (k *Kite) setHeaders(req *http.Request) {
	req.Header.Set("X-Kite-Version", "3")
	req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", k.apiKey, k.accessToken))
}

// LoadInstruments downloads the NSE instrument dump and caches the
// symbol-to-token mapping. The dump is CSV with a header row:
// instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,
// strike,tick_size,lot_size,instrument_type,segment,exchange.
func (k *Kite) LoadInstruments(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+"/instruments/NSE", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	k.setHeaders(req)

	resp, err := k.client.Do(req)
	if err != nil {
		return core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("instrument dump status %d", resp.StatusCode))
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return core.WrapError(core.ErrProviderFailed, fmt.Errorf("parsing instrument dump: %w", err))
	}
	if len(records) < 2 {
		return core.ErrNoData
	}

	instruments := make(map[string]core.Instrument, len(records)-1)
	for _, rec := range records[1:] { // skip header
		if len(rec) < 12 {
			continue
		}
		inst := core.Instrument{
			Token:          rec[0],
			TradingSymbol:  rec[2],
			Name:           rec[3],
			InstrumentType: rec[9],
			Exchange:       core.Exchange(rec[11]),
		}
		if inst.Token == "" || inst.TradingSymbol == "" {
			continue
		}
		instruments[inst.TradingSymbol] = inst
	}

	k.mu.Lock()
	k.instruments = instruments
	k.mu.Unlock()

	return nil
}

// InstrumentCount returns the number of cached instruments.
func (k *Kite) InstrumentCount() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.instruments)
}

// Instruments returns the cached instrument master sorted by trading
// symbol.
func (k *Kite) Instruments() []core.Instrument {
	k.mu.RLock()
	defer k.mu.RUnlock()

	out := make([]core.Instrument, 0, len(k.instruments))
	for _, inst := range k.instruments {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TradingSymbol < out[j].TradingSymbol
	})
	return out
}

// ResolveSymbols splits symbols into those present in the instrument cache
// and those the exchange does not know.
func (k *Kite) ResolveSymbols(symbols []string) (matched, missing []string) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	for _, s := range symbols {
		if _, ok := k.instruments[s]; ok {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

func (k *Kite) token(symbol string) (string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	inst, ok := k.instruments[symbol]
	if !ok {
		return "", core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol %q", symbol))
	}
	return inst.Token, nil
}

// historicalResponse mirrors the Kite historical data envelope.
type historicalResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Candles [][]any `json:"candles"`
	} `json:"data"`
}

// FetchCandles fetches historical candles for the symbol. Candle rows come
// back as arrays: [timestamp, open, high, low, close, volume(, oi)].
func (k *Kite) FetchCandles(ctx context.Context, symbol string, timeframe core.Timeframe, from, to time.Time) ([]core.Candle, error) {
	token, err := k.token(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("from", from.Format(kiteTimeLayout))
	q.Set("to", to.Format(kiteTimeLayout))
	q.Set("oi", "1")

	endpoint := fmt.Sprintf("%s/instruments/historical/%s/%s?%s", k.baseURL, token, timeframe, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	k.setHeaders(req)

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("historical data status %d", resp.StatusCode))
	}

	var result historicalResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, core.WrapError(core.ErrProviderFailed, fmt.Errorf("decoding response: %w", err))
	}
	if result.Status != "success" {
		return nil, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("kite error: %s", result.Message))
	}

	candles := make([]core.Candle, 0, len(result.Data.Candles))
	for _, row := range result.Data.Candles {
		if len(row) < 6 {
			continue
		}
		c := core.Candle{
			Timestamp: asString(row[0]),
			Open:      asFloat(row[1]),
			High:      asFloat(row[2]),
			Low:       asFloat(row[3]),
			Close:     asFloat(row[4]),
			Volume:    int64(asFloat(row[5])),
		}
		if len(row) >= 7 {
			c.OpenInterest = int64(asFloat(row[6]))
		}
		candles = append(candles, c)
	}

	return candles, nil
}

// ltpResponse mirrors the Kite LTP quote envelope.
type ltpResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    map[string]struct {
		InstrumentToken int64   `json:"instrument_token"`
		LastPrice       float64 `json:"last_price"`
	} `json:"data"`
}

// LatestPrice fetches the last traded price via the LTP quote endpoint.
func (k *Kite) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	key := "NSE:" + symbol

	q := url.Values{}
	q.Set("i", key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.baseURL+"/quote/ltp?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	k.setHeaders(req)

	resp, err := k.client.Do(req)
	if err != nil {
		return 0, core.WrapError(core.ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, core.WrapError(core.ErrProviderFailed,
			fmt.Errorf("ltp status %d", resp.StatusCode))
	}

	var result ltpResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, core.WrapError(core.ErrProviderFailed, fmt.Errorf("decoding response: %w", err))
	}
	if result.Status != "success" {
		return 0, core.WrapError(core.ErrProviderFailed, fmt.Errorf("kite error: %s", result.Message))
	}

	quote, ok := result.Data[key]
	if !ok {
		return 0, core.WrapError(core.ErrNoData, fmt.Errorf("no ltp for %s", key))
	}
	return quote.LastPrice, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		var f float64
		fmt.Sscanf(strings.TrimSpace(n), "%g", &f)
		return f
	default:
		return 0
	}
}
