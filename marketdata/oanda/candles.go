package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
	"github.com/rustyeddy/tradesense/marketdata/csvfeed"
)

type CandlesOptions struct {
	Instrument  string
	Granularity string // e.g. M1, H1, D
	Price       string // M, B, A

	From  time.Time // optional
	To    time.Time // optional
	Count int       // optional (used if >0)
}

type ohlc struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candlesResp struct {
	Instrument  string `json:"instrument"`
	Granularity string `json:"granularity"`
	Candles     []struct {
		Complete bool   `json:"complete"`
		Time     string `json:"time"`
		Volume   int    `json:"volume"`

		Mid *ohlc `json:"mid,omitempty"`
		Bid *ohlc `json:"bid,omitempty"`
		Ask *ohlc `json:"ask,omitempty"`
	} `json:"candles"`
}

// FetchCandles requests one page of candles and returns them in API order
// (oldest first), incomplete candles included.
func (c *Client) FetchCandles(ctx context.Context, opts CandlesOptions) ([]csvfeed.Record, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("oanda: missing token")
	}
	if c.BaseURL == "" {
		return nil, fmt.Errorf("oanda: missing base url")
	}
	if opts.Instrument == "" {
		return nil, fmt.Errorf("oanda: missing instrument")
	}
	if opts.Granularity == "" {
		return nil, fmt.Errorf("oanda: missing granularity")
	}
	price := strings.ToUpper(strings.TrimSpace(opts.Price))
	if price == "" {
		price = "M"
	}
	if price != "M" && price != "B" && price != "A" {
		return nil, fmt.Errorf("oanda: price=%s not supported; use M/B/A", price)
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = fmt.Sprintf("/v3/instruments/%s/candles", opts.Instrument)

	q := u.Query()
	q.Set("granularity", opts.Granularity)
	q.Set("price", price)

	if opts.Count > 0 {
		q.Set("count", strconv.Itoa(opts.Count))
	} else {
		if !opts.From.IsZero() {
			q.Set("from", opts.From.UTC().Format(time.RFC3339Nano))
		}
		if !opts.To.IsZero() {
			q.Set("to", opts.To.UTC().Format(time.RFC3339Nano))
		}
	}

	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, fmt.Errorf("oanda candles http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr candlesResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("oanda: decode candles: %w", err)
	}

	out := make([]csvfeed.Record, 0, len(cr.Candles))
	for _, cd := range cr.Candles {
		var p *ohlc
		switch price {
		case "M":
			p = cd.Mid
		case "B":
			p = cd.Bid
		case "A":
			p = cd.Ask
		}
		if p == nil {
			continue
		}

		t, err := time.Parse(time.RFC3339Nano, cd.Time)
		if err != nil {
			return nil, fmt.Errorf("oanda: candle time %q: %w", cd.Time, err)
		}
		candle, err := p.candle(t)
		if err != nil {
			return nil, fmt.Errorf("oanda: candle %s: %w", cd.Time, err)
		}
		candle.Volume = float64(cd.Volume)

		out = append(out, csvfeed.Record{
			Candle:      candle,
			Instrument:  cr.Instrument,
			Granularity: cr.Granularity,
			Complete:    cd.Complete,
		})
	}
	return out, nil
}

func (p ohlc) candle(t time.Time) (market.Candle, error) {
	var vals [4]float64
	for i, s := range []string{p.O, p.H, p.L, p.C} {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return market.Candle{}, err
		}
		vals[i] = v
	}
	return market.Candle{Time: t.UTC(), Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}, nil
}

// DownloadCandlesToCSV fetches candles and writes them in the canonical
// CSV layout. It returns the number of rows written.
func (c *Client) DownloadCandlesToCSV(ctx context.Context, opts CandlesOptions, w io.Writer) (int, error) {
	recs, err := c.FetchCandles(ctx, opts)
	if err != nil {
		return 0, err
	}
	return csvfeed.Write(w, recs)
}

// Candles implements marketdata.Provider using mid prices.
func (c *Client) Candles(ctx context.Context, req marketdata.Request) ([]market.Candle, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	recs, err := c.FetchCandles(ctx, CandlesOptions{
		Instrument:  req.Pair.Instrument(),
		Granularity: req.Interval.Granularity(),
		Count:       req.Count,
	})
	if err != nil {
		return nil, err
	}

	if c.IncludeIncomplete {
		out := make([]market.Candle, len(recs))
		for i, r := range recs {
			out[i] = r.Candle
		}
		return out, nil
	}
	return csvfeed.Candles(recs), nil
}
