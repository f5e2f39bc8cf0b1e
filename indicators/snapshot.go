package indicators

import (
	"time"

	"github.com/rustyeddy/tradesense/market"
)

// MovingAverages holds the fast/slow averages of a snapshot.
//
// FastSlope is the change of the fast EMA over the latest candle. It is 0
// when the series is exactly MAFast candles long.
type MovingAverages struct {
	SMAFast   float64 `json:"sma_fast"`
	SMASlow   float64 `json:"sma_slow"`
	EMAFast   float64 `json:"ema_fast"`
	EMASlow   float64 `json:"ema_slow"`
	FastSlope float64 `json:"fast_slope"`
}

// Snapshot is one fully computed set of indicator values for the latest
// candle of a series.
type Snapshot struct {
	Time           time.Time      `json:"timestamp"`
	Price          float64        `json:"price"`
	Bollinger      Bands          `json:"bollinger"`
	RSI            float64        `json:"rsi"`
	MovingAverages MovingAverages `json:"moving_averages"`
}

// BuildSnapshot sorts the candles oldest to newest and computes every
// indicator family from the closes. It is all or nothing: if any indicator
// lacks data the second return value is false and the snapshot is zero.
func BuildSnapshot(candles []market.Candle, p Parameters) (Snapshot, bool) {
	if len(candles) == 0 {
		return Snapshot{}, false
	}

	sorted := market.SortedByTime(candles)
	closes := market.Closes(sorted)
	latest := sorted[len(sorted)-1]

	bands, ok := BollingerBands(closes, p.BollingerPeriod, p.BollingerStdDev)
	if !ok {
		return Snapshot{}, false
	}
	rsi, ok := RSI(closes, p.RSIPeriod)
	if !ok {
		return Snapshot{}, false
	}

	var ma MovingAverages
	if ma.SMAFast, ok = SMA(closes, p.MAFast); !ok {
		return Snapshot{}, false
	}
	if ma.SMASlow, ok = SMA(closes, p.MASlow); !ok {
		return Snapshot{}, false
	}
	if ma.EMAFast, ok = EMA(closes, p.MAFast); !ok {
		return Snapshot{}, false
	}
	if ma.EMASlow, ok = EMA(closes, p.MASlow); !ok {
		return Snapshot{}, false
	}
	if prev, ok := EMA(closes[:len(closes)-1], p.MAFast); ok {
		ma.FastSlope = ma.EMAFast - prev
	}

	return Snapshot{
		Time:           latest.Time,
		Price:          latest.Close,
		Bollinger:      bands,
		RSI:            rsi,
		MovingAverages: ma,
	}, true
}
