package signals

import (
	"math"
	"strconv"

	"github.com/rustyeddy/tradesense/indicators"
	"github.com/shopspring/decimal"
)

// rationale explains a signal in fixed order: band, RSI, trend.
func rationale(dir Direction, s indicators.Snapshot, c conditions) []string {
	out := make([]string, 0, 3)

	if c.touchesBand {
		if dir == Buy {
			out = append(out, "Price respected the lower Bollinger Band with increasing volatility.")
		} else {
			out = append(out, "Price touched the upper Bollinger Band indicating potential exhaustion.")
		}
	}

	if c.rsiTrigger {
		rsi := fixed(s.RSI, 1)
		if dir == Buy {
			out = append(out, "RSI at "+rsi+" is below oversold threshold.")
		} else {
			out = append(out, "RSI at "+rsi+" is above overbought threshold.")
		}
	}

	if c.trendAligned {
		out = append(out, "Moving averages confirm the prevailing trend.")
	} else {
		out = append(out, "Trend filter is less aligned; consider tighter risk management.")
	}

	return out
}

// fixed formats v with the given number of decimals.
func fixed(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', int(places), 64)
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}
