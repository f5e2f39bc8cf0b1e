// Package dukascopy builds candles from the hourly tick files published by
// the Dukascopy datafeed. Each file holds one UTC hour of LZMA-compressed
// 20-byte tick records.
package dukascopy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/ulikunitz/xz/lzma"

	"github.com/rustyeddy/tradesense/market"
)

// recordSize is ms offset, ask, bid (uint32) and ask/bid volume (float32).
const recordSize = 20

type Tick struct {
	Time      time.Time
	Ask       float64
	Bid       float64
	AskVolume float32
	BidVolume float32
}

func (t Tick) Mid() float64 {
	return (t.Ask + t.Bid) / 2
}

// Decode decompresses a .bi5 payload and parses its ticks. Prices are stored
// as integer points; the pair's quoted decimals give the scale. An empty
// payload is an hour without ticks.
func Decode(r io.Reader, pair market.Pair, hour time.Time) ([]Tick, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	lr, err := lzma.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("dukascopy: lzma: %w", err)
	}
	flat, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("dukascopy: decompress: %w", err)
	}
	return ParseTicks(flat, hour, math.Pow10(int(pair.PriceDecimals())))
}

// ParseTicks decodes raw big-endian tick records for the hour starting at
// hour. Prices are divided by scale.
func ParseTicks(flat []byte, hour time.Time, scale float64) ([]Tick, error) {
	if len(flat)%recordSize != 0 {
		return nil, fmt.Errorf("dukascopy: %d bytes is not a whole number of ticks", len(flat))
	}

	hour = hour.UTC().Truncate(time.Hour)
	out := make([]Tick, 0, len(flat)/recordSize)
	for off := 0; off < len(flat); off += recordSize {
		rec := flat[off : off+recordSize]
		ms := binary.BigEndian.Uint32(rec[0:4])
		out = append(out, Tick{
			Time:      hour.Add(time.Duration(ms) * time.Millisecond),
			Ask:       float64(binary.BigEndian.Uint32(rec[4:8])) / scale,
			Bid:       float64(binary.BigEndian.Uint32(rec[8:12])) / scale,
			AskVolume: math.Float32frombits(binary.BigEndian.Uint32(rec[12:16])),
			BidVolume: math.Float32frombits(binary.BigEndian.Uint32(rec[16:20])),
		})
	}
	return out, nil
}

// Aggregate folds time-ordered ticks into mid-price candles of the given
// interval. Volume is the tick count.
func Aggregate(ticks []Tick, interval market.Interval) []market.Candle {
	width := interval.Duration()
	var out []market.Candle
	for _, t := range ticks {
		mid := t.Mid()
		bucket := t.Time.Truncate(width)
		n := len(out)
		if n == 0 || !out[n-1].Time.Equal(bucket) {
			out = append(out, market.Candle{Time: bucket, Open: mid, High: mid, Low: mid, Close: mid, Volume: 1})
			continue
		}
		c := &out[n-1]
		c.High = max(c.High, mid)
		c.Low = min(c.Low, mid)
		c.Close = mid
		c.Volume++
	}
	return out
}
