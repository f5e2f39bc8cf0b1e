package indicators

import "math"

// BollingerBands calculates the bands over the last period values.
// The standard deviation is the population one (divide by period).
func BollingerBands(values []float64, period int, stdDevMultiplier float64) (Bands, bool) {
	middle, ok := SMA(values, period)
	if !ok {
		return Bands{}, false
	}

	variance := 0.0
	for _, v := range values[len(values)-period:] {
		d := v - middle
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(period))

	return Bands{
		Upper:  middle + stdDevMultiplier*stdDev,
		Middle: middle,
		Lower:  middle - stdDevMultiplier*stdDev,
	}, true
}
