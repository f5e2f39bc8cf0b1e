package indicators

// NeutralRSI is returned when a window has neither gains nor losses.
const NeutralRSI = 50.0

// RSI calculates Wilder's Relative Strength Index.
//
// The first period deltas seed the average gain and loss; every later delta
// updates both lanes with avg = (avg*(period-1) + current)/period, the lane
// that did not move receiving zero. It needs more than period values because
// differencing consumes one sample.
//
// Boundary policy: zero average loss gives 100, unless the average gain is
// also zero (a flat window), which gives NeutralRSI.
func RSI(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) <= period {
		return 0, false
	}

	p := float64(period)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(values[i] - values[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= p
	avgLoss /= p

	for i := period + 1; i < len(values); i++ {
		gain, loss := split(values[i] - values[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	return rsiFromAverages(avgGain, avgLoss), true
}

// split returns the gain and loss magnitudes of one delta.
func split(delta float64) (gain, loss float64) {
	if delta >= 0 {
		return delta, 0
	}
	return 0, -delta
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return NeutralRSI
	case avgLoss == 0:
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
