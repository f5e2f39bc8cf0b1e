// Package csvfeed reads and writes candle series in the canonical CSV
// layout:
//
//	time,instrument,granularity,complete,volume,o,h,l,c
//
// and serves a directory of such files as a marketdata.Provider.
package csvfeed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/tradesense/market"
)

var Header = []string{"time", "instrument", "granularity", "complete", "volume", "o", "h", "l", "c"}

// Record is one CSV row.
type Record struct {
	market.Candle
	Instrument  string
	Granularity string
	Complete    bool
}

// Write emits the header followed by one row per record and returns the
// number of records written.
func Write(w io.Writer, recs []Record) (int, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}

	written := 0
	for _, r := range recs {
		row := []string{
			r.Time.UTC().Format(time.RFC3339Nano),
			r.Instrument,
			r.Granularity,
			strconv.FormatBool(r.Complete),
			strconv.FormatFloat(r.Volume, 'f', -1, 64),
			formatPrice(r.Open),
			formatPrice(r.High),
			formatPrice(r.Low),
			formatPrice(r.Close),
		}
		if err := cw.Write(row); err != nil {
			return written, err
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, err
	}
	return written, nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Read parses a canonical candle CSV. Columns are matched by header name;
// only time and c are required. Missing o/h/l fall back to the close and a
// missing complete column means complete.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csvfeed: header: %w", err)
	}

	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, need := range []string{"time", "c"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("csvfeed: missing %q column", need)
		}
	}

	var out []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return out, fmt.Errorf("csvfeed: line %d: %w", line, err)
		}

		rec, err := parseRow(row, col)
		if err != nil {
			return out, fmt.Errorf("csvfeed: line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string, col map[string]int) (Record, error) {
	get := func(name string) (string, bool) {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var rec Record
	ts, _ := get("time")
	t, err := parseTime(ts)
	if err != nil {
		return rec, err
	}
	rec.Time = t

	cs, _ := get("c")
	rec.Close, err = strconv.ParseFloat(cs, 64)
	if err != nil {
		return rec, fmt.Errorf("close %q: %w", cs, err)
	}

	price := func(name string) (float64, error) {
		s, ok := get(name)
		if !ok || s == "" {
			return rec.Close, nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%s %q: %w", name, s, err)
		}
		return v, nil
	}
	if rec.Open, err = price("o"); err != nil {
		return rec, err
	}
	if rec.High, err = price("h"); err != nil {
		return rec, err
	}
	if rec.Low, err = price("l"); err != nil {
		return rec, err
	}

	if s, ok := get("volume"); ok && s != "" {
		if rec.Volume, err = strconv.ParseFloat(s, 64); err != nil {
			return rec, fmt.Errorf("volume %q: %w", s, err)
		}
	}

	rec.Complete = true
	if s, ok := get("complete"); ok && s != "" {
		if rec.Complete, err = strconv.ParseBool(s); err != nil {
			return rec, fmt.Errorf("complete %q: %w", s, err)
		}
	}

	rec.Instrument, _ = get("instrument")
	rec.Granularity, _ = get("granularity")
	return rec, nil
}

// parseTime accepts RFC3339 timestamps and unix seconds.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("time %q: want RFC3339 or unix seconds", s)
}

func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func WriteFile(path string, recs []Record) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := Write(f, recs)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// Candles extracts the candles of complete records.
func Candles(recs []Record) []market.Candle {
	out := make([]market.Candle, 0, len(recs))
	for _, r := range recs {
		if r.Complete {
			out = append(out, r.Candle)
		}
	}
	return out
}

// Records wraps candles for writing.
func Records(pair market.Pair, interval market.Interval, candles []market.Candle) []Record {
	out := make([]Record, len(candles))
	for i, c := range candles {
		out[i] = Record{
			Candle:      c,
			Instrument:  pair.Instrument(),
			Granularity: interval.Granularity(),
			Complete:    true,
		}
	}
	return out
}
