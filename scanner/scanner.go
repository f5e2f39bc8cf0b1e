// Package scanner runs refresh cycles: fetch candles for each monitored
// pair, evaluate signals, persist and notify.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/rustyeddy/tradesense/history"
	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
	"github.com/rustyeddy/tradesense/metrics"
	"github.com/rustyeddy/tradesense/notify"
	"github.com/rustyeddy/tradesense/pkg/id"
	"github.com/rustyeddy/tradesense/settings"
	"github.com/rustyeddy/tradesense/signals"
)

const DefaultWorkers = 4

type Config struct {
	Provider marketdata.Provider

	// Optional collaborators. Settings defaults to an in-memory store;
	// a nil History or Notifier disables that step.
	Settings settings.Repository
	History  history.Repository
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	Signals signals.Options

	// Interval overrides the settings' auto-refresh interval when set.
	Interval market.Interval
	// Count is the number of candles requested per pair.
	Count int
	// Workers bounds concurrent market data requests.
	Workers int
	// MinConfidence filters which signals are notified.
	MinConfidence float64
}

type Scanner struct {
	cfg Config
	log *slog.Logger
	m   *metrics.Metrics
}

func New(cfg Config) (*Scanner, error) {
	if cfg.Provider == nil {
		return nil, errors.New("scanner: market data provider required")
	}
	if err := cfg.Signals.Validate(); err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}
	if cfg.Interval != "" && !cfg.Interval.Valid() {
		return nil, fmt.Errorf("scanner: unsupported interval %q", cfg.Interval)
	}
	if cfg.Settings == nil {
		cfg.Settings = settings.NewMemoryStore(settings.Default())
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Count <= 0 {
		cfg.Count = marketdata.DefaultCount
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{cfg: cfg, log: log.With("component", "scanner"), m: cfg.Metrics}, nil
}

func (s *Scanner) Metrics() *metrics.Metrics {
	return s.m
}

func (s *Scanner) Settings() settings.Repository {
	return s.cfg.Settings
}

// PairError records why one pair produced nothing in a cycle.
type PairError struct {
	Pair market.Pair
	Err  error
}

func (e PairError) Error() string {
	return e.Pair.String() + ": " + e.Err.Error()
}

func (e PairError) Unwrap() error {
	return e.Err
}

type Result struct {
	CycleID  string
	Started  time.Time
	Finished time.Time
	// Signals from every pair, newest first.
	Signals  []signals.Signal
	Failures []PairError
}

// settingsOrDefault never fails: a broken settings store falls back to
// defaults so a cycle can still run.
func (s *Scanner) settingsOrDefault(ctx context.Context) settings.Settings {
	st, err := s.cfg.Settings.Get(ctx)
	if err != nil {
		s.log.Warn("settings unavailable, using defaults", "error", err)
		return settings.Default()
	}
	return st
}

func (s *Scanner) request(st settings.Settings, pair market.Pair) marketdata.Request {
	interval := s.cfg.Interval
	if interval == "" {
		interval = st.AutoRefreshInterval
	}
	return marketdata.Request{Pair: pair, Interval: interval, Count: s.cfg.Count}
}

type outcome struct {
	sigs []signals.Signal
	err  error
}

// Run executes one refresh cycle over pairs, or the preferred pairs from
// settings when pairs is empty. Failures of individual pairs are reported
// in the Result and never abort the cycle.
func (s *Scanner) Run(ctx context.Context, pairs []market.Pair) (Result, error) {
	res := Result{CycleID: id.New(), Started: time.Now()}
	log := s.log.With("cycle", res.CycleID)

	st := s.settingsOrDefault(ctx)
	engine, err := signals.NewEngine(st.Indicators, s.cfg.Signals)
	if err != nil {
		return res, fmt.Errorf("scanner: %w", err)
	}

	targets := pairs
	if len(targets) == 0 {
		targets = st.Pairs()
	}

	outcomes := s.evaluate(ctx, engine, st, targets)

	for i, pair := range targets {
		o := outcomes[i]
		if o.err != nil {
			log.Warn("pair failed", "pair", pair.String(), "error", o.err)
			res.Failures = append(res.Failures, PairError{Pair: pair, Err: o.err})
			continue
		}
		if len(o.sigs) == 0 {
			continue
		}

		if s.cfg.History != nil {
			if err := s.cfg.History.SaveMany(ctx, o.sigs); err != nil {
				s.m.HistoryErrors.Inc()
				log.Warn("saving signals failed", "pair", pair.String(), "error", err)
				res.Failures = append(res.Failures, PairError{Pair: pair, Err: err})
				continue
			}
		}

		for _, sig := range o.sigs {
			s.m.SignalsTotal.WithLabelValues(pair.String(), string(sig.Direction)).Inc()
			s.notify(ctx, log, st, sig)
		}
		res.Signals = append(res.Signals, o.sigs...)
	}

	sort.SliceStable(res.Signals, func(i, j int) bool {
		return res.Signals[i].CreatedAt.After(res.Signals[j].CreatedAt)
	})

	res.Finished = time.Now()
	s.m.ObserveCycle(res.Started, res.Finished)
	log.Info("refresh cycle done",
		"pairs", len(targets),
		"signals", len(res.Signals),
		"failures", len(res.Failures),
		"elapsed", res.Finished.Sub(res.Started).String(),
	)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// evaluate fetches and evaluates every pair on a bounded worker pool.
// outcomes[i] belongs to targets[i].
func (s *Scanner) evaluate(ctx context.Context, engine *signals.Engine, st settings.Settings, targets []market.Pair) []outcome {
	outcomes := make([]outcome, len(targets))

	jobCh := make(chan int)
	var wg sync.WaitGroup

	workers := min(s.cfg.Workers, len(targets))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				sigs, err := s.evaluatePair(ctx, engine, st, targets[i])
				outcomes[i] = outcome{sigs: sigs, err: err}
			}
		}()
	}

	for i := range targets {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	return outcomes
}

func (s *Scanner) evaluatePair(ctx context.Context, engine *signals.Engine, st settings.Settings, pair market.Pair) ([]signals.Signal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label := pair.String()
	candles, err := s.cfg.Provider.Candles(ctx, s.request(st, pair))
	if err != nil {
		s.m.FetchErrors.WithLabelValues(label).Inc()
		return nil, err
	}

	s.m.Evaluations.WithLabelValues(label).Inc()
	snap, ok := indicators.BuildSnapshot(candles, engine.Parameters())
	if !ok {
		s.m.NoData.WithLabelValues(label).Inc()
		s.log.Debug("not enough candles", "pair", label, "have", len(candles), "need", engine.Parameters().Warmup())
		return nil, nil
	}
	return engine.Evaluate(pair, snap), nil
}

func (s *Scanner) notify(ctx context.Context, log *slog.Logger, st settings.Settings, sig signals.Signal) {
	if s.cfg.Notifier == nil || !st.Notifications.Enabled {
		return
	}
	if sig.Confidence < s.cfg.MinConfidence {
		return
	}
	if err := s.cfg.Notifier.Notify(ctx, sig); err != nil {
		s.m.NotifyErrors.Inc()
		log.Warn("notify failed", "signal", sig.ID, "error", err)
	}
}

// Snapshot fetches candles for one pair and builds its indicator snapshot
// with the current settings. ok is false when the series is too short.
func (s *Scanner) Snapshot(ctx context.Context, pair market.Pair) (snap indicators.Snapshot, ok bool, err error) {
	st := s.settingsOrDefault(ctx)
	candles, err := s.cfg.Provider.Candles(ctx, s.request(st, pair))
	if err != nil {
		return indicators.Snapshot{}, false, err
	}
	snap, ok = indicators.BuildSnapshot(candles, st.Indicators)
	return snap, ok, nil
}

// Loop runs a cycle immediately and then every interval until ctx is
// cancelled. A non-positive every uses the notification interval from
// settings, or the candle interval when that is unset.
func (s *Scanner) Loop(ctx context.Context, every time.Duration, pairs []market.Pair) error {
	if every <= 0 {
		st := s.settingsOrDefault(ctx)
		every = time.Duration(st.Notifications.IntervalMinutes) * time.Minute
		if every <= 0 {
			every = s.request(st, market.Pair{}).Interval.Duration()
		}
	}

	s.log.Info("refresh loop started", "every", every.String())
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := s.Run(ctx, pairs); err != nil && ctx.Err() == nil {
			s.log.Error("refresh cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.log.Info("refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
