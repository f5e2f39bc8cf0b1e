// Package indicators computes technical indicators over closing-price series.
//
// Every calculation is a pure function of its inputs. A series that is too
// short for the requested period is an expected condition, not an error:
// functions report it with a false ok value instead.
package indicators

// Bands holds one Bollinger Bands reading.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Width is Upper - Lower.
func (b Bands) Width() float64 {
	return b.Upper - b.Lower
}
