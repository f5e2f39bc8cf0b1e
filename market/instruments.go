// market/instruments.go
package market

type InstrumentMeta struct {
	Name          string
	BaseCurrency  string
	QuoteCurrency string
	PipLocation   int
}

var Instruments = map[string]InstrumentMeta{
	"EUR_USD": {Name: "EUR_USD", BaseCurrency: "EUR", QuoteCurrency: "USD", PipLocation: -4},
	"GBP_USD": {Name: "GBP_USD", BaseCurrency: "GBP", QuoteCurrency: "USD", PipLocation: -4},
	"USD_JPY": {Name: "USD_JPY", BaseCurrency: "USD", QuoteCurrency: "JPY", PipLocation: -2},
	"AUD_USD": {Name: "AUD_USD", BaseCurrency: "AUD", QuoteCurrency: "USD", PipLocation: -4},
	"USD_CAD": {Name: "USD_CAD", BaseCurrency: "USD", QuoteCurrency: "CAD", PipLocation: -4},
	"NZD_USD": {Name: "NZD_USD", BaseCurrency: "NZD", QuoteCurrency: "USD", PipLocation: -4},
}

// PriceDecimals is the number of decimals quoted for the pair: one more than
// the pip location (pipettes). Unknown pairs use the JPY rule when quoted in
// JPY and the four-decimal rule otherwise.
func (p Pair) PriceDecimals() int32 {
	if meta, ok := Instruments[p.Instrument()]; ok {
		return int32(-meta.PipLocation + 1)
	}
	if p.Quote == "JPY" {
		return 3
	}
	return 5
}
