package signals

import (
	"fmt"

	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
)

// DefaultBandTolerance lets price sit up to 0.5% inside a band and still
// count as touching it.
const DefaultBandTolerance = 0.005

// Options tune the decision layer independently of the indicator math.
type Options struct {
	// AllowCounterTrend bypasses the EMA trend-alignment gate.
	AllowCounterTrend bool `json:"allow_counter_trend" yaml:"allow_counter_trend"`
	// BandTolerance is the fraction by which the band-touch test is relaxed.
	BandTolerance float64 `json:"band_tolerance" yaml:"band_tolerance"`
}

func DefaultOptions() Options {
	return Options{BandTolerance: DefaultBandTolerance}
}

func (o Options) Validate() error {
	if o.BandTolerance < 0 || o.BandTolerance >= 1 {
		return fmt.Errorf("band_tolerance must be within [0,1), got %v", o.BandTolerance)
	}
	return nil
}

// Engine evaluates buy and sell conditions. It holds configuration only and
// is safe for concurrent use.
type Engine struct {
	params indicators.Parameters
	opts   Options
}

// NewEngine validates the configuration up front so evaluation never fails.
func NewEngine(params indicators.Parameters, opts Options) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: params, opts: opts}, nil
}

func (e *Engine) Parameters() indicators.Parameters {
	return e.params
}

func (e *Engine) Options() Options {
	return e.opts
}

// Generate builds a snapshot from the candles and evaluates it. An empty
// series or one too short for the configured periods yields no signals.
func (e *Engine) Generate(pair market.Pair, candles []market.Candle) []Signal {
	if len(candles) == 0 {
		return nil
	}
	snap, ok := indicators.BuildSnapshot(candles, e.params)
	if !ok {
		return nil
	}
	return e.Evaluate(pair, snap)
}

// Evaluate checks both directions independently against one snapshot.
// Buy comes first when both qualify; with validated RSI levels (oversold
// below overbought) the RSI gates cannot both pass, so at most one signal
// is returned in practice.
func (e *Engine) Evaluate(pair market.Pair, snap indicators.Snapshot) []Signal {
	var out []Signal
	for _, dir := range []Direction{Buy, Sell} {
		c := e.check(dir, snap)
		if !c.fires(e.opts.AllowCounterTrend) {
			continue
		}
		out = append(out, Signal{
			ID:         SignalID(pair, dir, snap.Time, snap.Price),
			Pair:       pair,
			Direction:  dir,
			Confidence: e.confidence(dir, snap, c.trendAligned),
			Rationale:  rationale(dir, snap, c),
			CreatedAt:  snap.Time,
			Snapshot:   snap,
		})
	}
	return out
}

type conditions struct {
	touchesBand  bool
	rsiTrigger   bool
	trendAligned bool
}

func (c conditions) fires(allowCounterTrend bool) bool {
	return c.touchesBand && c.rsiTrigger && (c.trendAligned || allowCounterTrend)
}

func (e *Engine) check(dir Direction, s indicators.Snapshot) conditions {
	ma := s.MovingAverages
	tol := e.opts.BandTolerance

	if dir == Buy {
		return conditions{
			touchesBand:  s.Price <= s.Bollinger.Lower*(1+tol),
			rsiTrigger:   s.RSI <= e.params.RSIOversold,
			trendAligned: ma.EMAFast >= ma.EMASlow,
		}
	}
	return conditions{
		touchesBand:  s.Price >= s.Bollinger.Upper*(1-tol),
		rsiTrigger:   s.RSI >= e.params.RSIOverbought,
		trendAligned: ma.EMAFast <= ma.EMASlow,
	}
}
