// Package signals turns an indicator snapshot into directional trade
// suggestions with a confidence score and a rationale.
package signals

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
)

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Buy, Sell:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q (supported: buy, sell)", s)
}

// Signal is a buy or sell suggestion derived from one snapshot.
type Signal struct {
	ID         string              `json:"id"`
	Pair       market.Pair         `json:"pair"`
	Direction  Direction           `json:"direction"`
	Confidence float64             `json:"confidence"`
	Rationale  []string            `json:"rationale"`
	CreatedAt  time.Time           `json:"created_at"`
	Snapshot   indicators.Snapshot `json:"indicator_snapshot"`
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rustyeddy/tradesense/signals"))

// SignalID derives a stable identifier from pair, direction, snapshot time
// and price, e.g. "EUR-USD:buy:3f1c...". Re-evaluating the same data yields
// the same ID, which lets history stores dedupe.
func SignalID(pair market.Pair, dir Direction, ts time.Time, price float64) string {
	key := pair.String() + "|" + string(dir) + "|" +
		ts.UTC().Format(time.RFC3339Nano) + "|" +
		strconv.FormatFloat(price, 'g', -1, 64)
	return pair.Slug() + ":" + string(dir) + ":" + uuid.NewSHA1(idNamespace, []byte(key)).String()
}
