// Package marketdata defines how candle series are retrieved. Concrete
// providers live in the alphavantage, oanda, dukascopy and csvfeed
// subpackages.
package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/tradesense/market"
)

// DefaultCount is the number of candles requested when a Request leaves
// Count unset. It covers the default indicator warmup with room to spare.
const DefaultCount = 100

// ErrNoData is returned by providers that found nothing for a request.
var ErrNoData = errors.New("marketdata: no candles")

type Request struct {
	Pair     market.Pair
	Interval market.Interval
	Count    int
}

// Normalize fills defaults and validates the request.
func (r Request) Normalize() (Request, error) {
	if r.Pair.IsZero() {
		return r, fmt.Errorf("marketdata: missing pair")
	}
	if r.Interval == "" {
		r.Interval = market.DefaultInterval
	}
	if !r.Interval.Valid() {
		return r, fmt.Errorf("marketdata: unsupported interval %q", r.Interval)
	}
	if r.Count <= 0 {
		r.Count = DefaultCount
	}
	return r, nil
}

// Provider returns candles for a pair. Order is provider specific; the
// indicator layer sorts defensively.
type Provider interface {
	Candles(ctx context.Context, req Request) ([]market.Candle, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) ([]market.Candle, error)

func (f ProviderFunc) Candles(ctx context.Context, req Request) ([]market.Candle, error) {
	return f(ctx, req)
}
