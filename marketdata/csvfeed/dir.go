package csvfeed

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
)

// Dir serves candles from files named <instrument>_<interval>.csv under
// Root, e.g. data/EUR_USD_15min.csv.
type Dir struct {
	Root string
}

func Path(root string, pair market.Pair, interval market.Interval) string {
	return filepath.Join(root, pair.Instrument()+"_"+interval.String()+".csv")
}

// Candles returns the latest req.Count complete candles, oldest first.
func (d Dir) Candles(ctx context.Context, req marketdata.Request) ([]market.Candle, error) {
	req, err := req.Normalize()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := Path(d.Root, req.Pair, req.Interval)
	recs, err := ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", marketdata.ErrNoData, path)
	}
	if err != nil {
		return nil, err
	}

	candles := market.SortedByTime(Candles(recs))
	return market.Last(candles, req.Count), nil
}
