package dukascopy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
)

const (
	DefaultBaseURL = "https://datafeed.dukascopy.com/datafeed"
	// DefaultLookback covers a weekend gap plus a day of candles.
	DefaultLookback = 7 * 24 * time.Hour
	DefaultWorkers  = 4
)

type Client struct {
	BaseURL string
	// CacheDir keeps downloaded .bi5 files; empty disables caching.
	CacheDir string
	HTTP     *http.Client
	Workers  int
	// Lookback bounds how far back Candles searches for enough ticks.
	Lookback time.Duration

	now func() time.Time
}

func New() *Client {
	return &Client{
		BaseURL:  DefaultBaseURL,
		HTTP:     &http.Client{Timeout: 45 * time.Second},
		Workers:  DefaultWorkers,
		Lookback: DefaultLookback,
		now:      time.Now,
	}
}

func symbol(p market.Pair) string {
	return p.Base + p.Quote
}

// HourURL is the tick file for the UTC hour containing t. Months in the
// path are zero based (January is 00).
func HourURL(base string, pair market.Pair, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s/%s/%04d/%02d/%02d/%02dh_ticks.bi5",
		strings.TrimRight(base, "/"),
		symbol(pair),
		t.Year(), int(t.Month())-1, t.Day(), t.Hour())
}

func (c *Client) cachePath(pair market.Pair, t time.Time) string {
	t = t.UTC()
	return filepath.Join(c.CacheDir, symbol(pair),
		fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", t.Month()), fmt.Sprintf("%02d", t.Day()),
		fmt.Sprintf("%02dh_ticks.bi5", t.Hour()))
}

// Hour returns the ticks of one UTC hour. Hours the feed does not have
// (weekends, the current hour) yield no ticks and no error.
func (c *Client) Hour(ctx context.Context, pair market.Pair, hour time.Time) ([]Tick, error) {
	hour = hour.UTC().Truncate(time.Hour)

	if c.CacheDir != "" {
		if f, err := os.Open(c.cachePath(pair, hour)); err == nil {
			defer f.Close()
			return Decode(f, pair, hour)
		}
	}

	body, err := c.download(ctx, HourURL(c.BaseURL, pair, hour))
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}

	if c.CacheDir != "" {
		if err := writeAtomic(c.cachePath(pair, hour), body); err != nil {
			return nil, err
		}
	}
	return Decode(bytes.NewReader(body), pair, hour)
}

// download returns nil without error for a missing hour.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "tradesense/1.0")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dukascopy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dukascopy: %s: http status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func writeAtomic(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

type hourResult struct {
	ticks []Tick
	err   error
}

// hours fetches every hour concurrently; results[i] belongs to hours[i].
func (c *Client) hours(ctx context.Context, pair market.Pair, hours []time.Time) []hourResult {
	results := make([]hourResult, len(hours))

	jobCh := make(chan int)
	var wg sync.WaitGroup

	workers := max(1, min(c.Workers, len(hours)))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				ticks, err := c.Hour(ctx, pair, hours[i])
				results[i] = hourResult{ticks: ticks, err: err}
			}
		}()
	}

	for i := range hours {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	return results
}

// Candles aggregates complete hours, searching back from the latest one,
// until req.Count candles are available or Lookback is exhausted. Candles
// are returned oldest first. The current hour is never published by the
// feed and is skipped.
func (c *Client) Candles(ctx context.Context, req marketdata.Request) ([]market.Candle, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	lookback := c.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	end := now().UTC().Truncate(time.Hour)
	oldest := end.Add(-lookback)

	perHour := int(time.Hour / req.Interval.Duration())
	batch := (req.Count+perHour-1)/perHour + 1

	var ticks []Tick
	cursor := end
	for cursor.After(oldest) {
		var hours []time.Time
		for i := 0; i < batch && cursor.After(oldest); i++ {
			cursor = cursor.Add(-time.Hour)
			hours = append(hours, cursor)
		}

		for _, r := range c.hours(ctx, req.Pair, hours) {
			if r.err != nil {
				return nil, r.err
			}
			ticks = append(ticks, r.ticks...)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].Time.Before(ticks[j].Time) })
		if candles := Aggregate(ticks, req.Interval); len(candles) >= req.Count {
			return market.Last(candles, req.Count), nil
		}
	}

	candles := Aggregate(ticks, req.Interval)
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w for %s within %s", marketdata.ErrNoData, req.Pair, lookback)
	}
	return candles, nil
}
