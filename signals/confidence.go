package signals

import (
	"math"

	"github.com/rustyeddy/tradesense/indicators"
	"github.com/shopspring/decimal"
)

const (
	bandWeight  = 0.4
	rsiWeight   = 0.4
	trendWeight = 0.2

	// keeps a collapsed band from dividing by zero
	minBandRange = 1e-6
)

// confidence = 0.4*band + 0.4*rsi + 0.2*trend, rounded to 2 decimals and
// clamped to [0,1].
func (e *Engine) confidence(dir Direction, s indicators.Snapshot, trendAligned bool) float64 {
	c := bandWeight*bandScore(dir, s) +
		rsiWeight*e.rsiScore(dir, s.RSI) +
		trendWeight*trendScore(dir, s.MovingAverages, trendAligned)

	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0
	}
	rounded, _ := decimal.NewFromFloat(c).Round(2).Float64()
	return clamp01(rounded)
}

// bandScore is 1 when price sits on the triggering band and falls off with
// the distance to it, relative to the band width.
func bandScore(dir Direction, s indicators.Snapshot) float64 {
	band := s.Bollinger.Lower
	if dir == Sell {
		band = s.Bollinger.Upper
	}
	bandRange := math.Max(s.Bollinger.Width(), minBandRange)
	return math.Max(0, 1-math.Abs(s.Price-band)/bandRange)
}

// rsiScore measures how deep RSI is past its threshold.
func (e *Engine) rsiScore(dir Direction, rsi float64) float64 {
	var score float64
	if dir == Buy {
		score = (e.params.RSIOversold - rsi) / nonZero(e.params.RSIOversold)
	} else {
		score = (rsi - e.params.RSIOverbought) / nonZero(100-e.params.RSIOverbought)
	}
	return clamp01(score)
}

// trendScore: 1 when the EMAs are aligned, 0.7 when only the fast EMA's
// latest move points the right way, 0.4 otherwise.
func trendScore(dir Direction, ma indicators.MovingAverages, aligned bool) float64 {
	switch {
	case aligned:
		return 1.0
	case dir == Buy && ma.FastSlope > 0, dir == Sell && ma.FastSlope < 0:
		return 0.7
	default:
		return 0.4
	}
}

func nonZero(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
