package market

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPair = errors.New("invalid currency pair")

// Pair is a currency pair such as EUR/USD.
type Pair struct {
	Base  string
	Quote string
}

// SupportedPairs are the pairs monitored when nothing else is configured.
var SupportedPairs = []Pair{
	{Base: "EUR", Quote: "USD"},
	{Base: "GBP", Quote: "USD"},
	{Base: "USD", Quote: "JPY"},
	{Base: "AUD", Quote: "USD"},
	{Base: "USD", Quote: "CAD"},
	{Base: "NZD", Quote: "USD"},
}

// ParsePair accepts "EUR/USD", "EUR_USD", "EUR-USD" and "EURUSD" (any case).
func ParsePair(s string) (Pair, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))

	var base, quote string
	if i := strings.IndexAny(sym, "/_-"); i >= 0 {
		base, quote = sym[:i], sym[i+1:]
	} else if len(sym) == 6 {
		base, quote = sym[:3], sym[3:]
	} else {
		return Pair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
	}

	p := Pair{Base: base, Quote: quote}
	if !isCurrency(base) || !isCurrency(quote) || base == quote {
		return Pair{}, fmt.Errorf("%w: %q", ErrInvalidPair, s)
	}
	return p, nil
}

// MustParsePair is ParsePair for literals; it panics on bad input.
func MustParsePair(s string) Pair {
	p, err := ParsePair(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePairs parses a list of symbols, failing on the first bad one.
func ParsePairs(symbols []string) ([]Pair, error) {
	out := make([]Pair, 0, len(symbols))
	for _, s := range symbols {
		p, err := ParsePair(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func isCurrency(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// String renders the display form, e.g. "EUR/USD".
func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Slug is the path and ID friendly form, e.g. "EUR-USD".
func (p Pair) Slug() string {
	return p.Base + "-" + p.Quote
}

// Instrument is the OANDA style name, e.g. "EUR_USD".
func (p Pair) Instrument() string {
	return p.Base + "_" + p.Quote
}

func (p Pair) IsZero() bool {
	return p.Base == "" && p.Quote == ""
}

func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pair) UnmarshalText(b []byte) error {
	parsed, err := ParsePair(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
