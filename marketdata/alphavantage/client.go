// Package alphavantage fetches FX intraday candles from the Alpha Vantage
// query API.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co/query"

	timestampLayout = "2006-01-02 15:04:05"
	// compact responses carry the latest 100 points
	compactSize = 100
)

var (
	ErrMissingKey  = errors.New("alphavantage: missing api key")
	ErrRateLimited = errors.New("alphavantage: rate limit exceeded")
)

type Client struct {
	BaseURL string
	APIKey  string
	// OutputSize is "compact" or "full". Empty picks full only when more
	// than 100 candles are requested.
	OutputSize string
	HTTP       *http.Client
}

func New(apiKey string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

type quote struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

// SeriesKey is the response field holding candles for the interval.
func SeriesKey(i market.Interval) string {
	return "Time Series FX (" + i.String() + ")"
}

// Candles implements marketdata.Provider. Candles come back newest first and
// at most req.Count long.
func (c *Client) Candles(ctx context.Context, req marketdata.Request) ([]market.Candle, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	if c.APIKey == "" {
		return nil, ErrMissingKey
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: base url: %w", err)
	}

	size := c.OutputSize
	if size == "" {
		size = "compact"
		if req.Count > compactSize {
			size = "full"
		}
	}

	q := u.Query()
	q.Set("function", "FX_INTRADAY")
	q.Set("from_symbol", req.Pair.Base)
	q.Set("to_symbol", req.Pair.Quote)
	q.Set("interval", req.Interval.String())
	q.Set("outputsize", size)
	q.Set("apikey", c.APIKey)
	u.RawQuery = q.Encode()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: %s: %w", req.Pair, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("alphavantage http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("alphavantage: decode: %w", err)
	}

	if err := responseError(raw); err != nil {
		return nil, err
	}

	series, ok := raw[SeriesKey(req.Interval)]
	if !ok {
		return nil, nil
	}

	var quotes map[string]quote
	if err := json.Unmarshal(series, &quotes); err != nil {
		return nil, fmt.Errorf("alphavantage: decode series: %w", err)
	}

	candles := mapQuotes(quotes)
	if len(candles) > req.Count {
		candles = candles[:req.Count]
	}
	return candles, nil
}

// responseError turns the informational fields Alpha Vantage returns with
// HTTP 200 into errors.
func responseError(raw map[string]json.RawMessage) error {
	if note := stringField(raw, "Note"); note != "" {
		return fmt.Errorf("%w: %s", ErrRateLimited, note)
	}
	if info := stringField(raw, "Information"); info != "" {
		return fmt.Errorf("alphavantage information: %s", info)
	}
	if msg := stringField(raw, "Error Message"); msg != "" {
		return fmt.Errorf("alphavantage error: %s", msg)
	}
	return nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return string(v)
	}
	return s
}

// mapQuotes converts the timestamp-keyed series into candles, dropping
// entries whose open or close is not a finite number, newest first.
func mapQuotes(quotes map[string]quote) []market.Candle {
	out := make([]market.Candle, 0, len(quotes))
	for ts, q := range quotes {
		t, err := time.ParseInLocation(timestampLayout, ts, time.UTC)
		if err != nil {
			continue
		}
		c := market.Candle{
			Time:  t,
			Open:  parseFloat(q.Open),
			High:  parseFloat(q.High),
			Low:   parseFloat(q.Low),
			Close: parseFloat(q.Close),
		}
		if !finite(c.Open) || !finite(c.Close) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
