package market

import (
	"sort"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data for one
// fixed interval.
type Candle struct {
	Time   time.Time `json:"timestamp" yaml:"timestamp"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume,omitempty" yaml:"volume,omitempty"`
}

// Valid reports whether the bar respects low <= min(open, close) and
// high >= max(open, close). Indicator code does not require it; callers can
// use it to flag feed problems.
func (c Candle) Valid() bool {
	lo := min(c.Open, c.Close)
	hi := max(c.Open, c.Close)
	return c.Low <= lo && c.High >= hi
}

// SortedByTime returns a copy of candles ordered oldest to newest.
// Candles sharing a timestamp keep their input order.
func SortedByTime(candles []Candle) []Candle {
	out := make([]Candle, len(candles))
	copy(out, candles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Closes extracts the closing prices in series order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Last returns the newest n candles of a chronologically sorted series.
func Last(candles []Candle, n int) []Candle {
	if n <= 0 || n >= len(candles) {
		return candles
	}
	return candles[len(candles)-n:]
}
