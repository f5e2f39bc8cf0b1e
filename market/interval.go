package market

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the candle width used when requesting market data.
type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval5Min  Interval = "5min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval60Min Interval = "60min"
)

// DefaultInterval is used when settings do not name one.
const DefaultInterval = Interval15Min

var intervals = map[Interval]struct {
	d           time.Duration
	granularity string
}{
	Interval1Min:  {time.Minute, "M1"},
	Interval5Min:  {5 * time.Minute, "M5"},
	Interval15Min: {15 * time.Minute, "M15"},
	Interval30Min: {30 * time.Minute, "M30"},
	Interval60Min: {time.Hour, "H1"},
}

func ParseInterval(s string) (Interval, error) {
	i := Interval(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", fmt.Errorf("unknown interval %q (supported: 1min, 5min, 15min, 30min, 60min)", s)
	}
	return i, nil
}

func (i Interval) Valid() bool {
	_, ok := intervals[i]
	return ok
}

func (i Interval) Duration() time.Duration {
	return intervals[i].d
}

// Granularity maps the interval onto an OANDA candle granularity (M1, H1, ...).
func (i Interval) Granularity() string {
	return intervals[i].granularity
}

func (i Interval) String() string {
	return string(i)
}

// IntervalFromGranularity is the inverse of Granularity.
func IntervalFromGranularity(g string) (Interval, bool) {
	g = strings.ToUpper(strings.TrimSpace(g))
	for i, v := range intervals {
		if v.granularity == g {
			return i, true
		}
	}
	return "", false
}
