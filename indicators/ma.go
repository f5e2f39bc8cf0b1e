package indicators

// SMA calculates the Simple Moving Average of the last period values.
func SMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), true
}

// EMA calculates the Exponential Moving Average for the given period.
//
// The average is seeded with the SMA of the first period values and then
// walked forward with ema = price*k + ema*(1-k), k = 2/(period+1).
func EMA(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}

	k := 2.0 / float64(period+1)

	ema, _ := SMA(values[:period], period)
	for _, price := range values[period:] {
		ema = price*k + ema*(1-k)
	}
	return ema, true
}
