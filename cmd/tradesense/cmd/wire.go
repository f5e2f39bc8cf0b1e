package cmd

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/go-redis/redis/v8"

	"github.com/rustyeddy/tradesense/config"
	"github.com/rustyeddy/tradesense/history"
	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
	"github.com/rustyeddy/tradesense/marketdata/alphavantage"
	"github.com/rustyeddy/tradesense/marketdata/csvfeed"
	"github.com/rustyeddy/tradesense/marketdata/dukascopy"
	"github.com/rustyeddy/tradesense/marketdata/oanda"
	"github.com/rustyeddy/tradesense/metrics"
	"github.com/rustyeddy/tradesense/notify"
	"github.com/rustyeddy/tradesense/scanner"
	"github.com/rustyeddy/tradesense/settings"
)

func newProvider(c *config.Config) (marketdata.Provider, error) {
	md := c.MarketData
	switch md.Provider {
	case "alphavantage":
		if md.APIKey == "" {
			return nil, fmt.Errorf("%w: set %s or market_data.api_key", alphavantage.ErrMissingKey, config.EnvAlphaVantageKey)
		}
		av := alphavantage.New(md.APIKey)
		if md.BaseURL != "" {
			av.BaseURL = md.BaseURL
		}
		av.OutputSize = md.OutputSize
		return av, nil

	case "oanda":
		if md.APIKey == "" {
			return nil, fmt.Errorf("oanda: missing token: set %s or market_data.api_key", config.EnvOandaToken)
		}
		base := md.BaseURL
		if base == "" {
			var err error
			if base, err = oanda.BaseURL(md.Env); err != nil {
				return nil, err
			}
		}
		return oanda.New(base, md.APIKey), nil

	case "dukascopy":
		dc := dukascopy.New()
		if md.BaseURL != "" {
			dc.BaseURL = md.BaseURL
		}
		dc.CacheDir = md.CacheDir
		dc.Workers = max(c.Refresh.Workers, 1)
		return dc, nil

	case "csv":
		return csvfeed.Dir{Root: md.Dir}, nil
	}
	return nil, fmt.Errorf("unknown market data provider %q", md.Provider)
}

// newSettings returns the configured settings store and a close func. The
// store's defaults come from the config file.
func newSettings(ctx context.Context, c *config.Config, log *slog.Logger) (settings.Repository, func() error, error) {
	defaults, err := c.SettingsDefaults()
	if err != nil {
		return nil, nil, err
	}
	if c.Settings.Store != "redis" {
		return settings.NewMemoryStore(defaults), func() error { return nil }, nil
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     c.Settings.RedisAddr,
		Password: c.Settings.RedisPassword,
		DB:       c.Settings.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("redis ping %s: %w", c.Settings.RedisAddr, err)
	}
	return settings.NewRedisStore(rdb, c.Settings.RedisKey, defaults, log), rdb.Close, nil
}

func openHistory(c *config.Config) (*history.SQLStore, error) {
	return history.Open(c.History.Driver, c.History.DSN, c.History.MaxItems)
}

func newNotifier(c *config.Config, log *slog.Logger) notify.Notifier {
	n := notify.Multi{notify.NewLogNotifier(log)}
	if c.Notifications.WebhookURL != "" {
		n = append(n, notify.NewWebhookNotifier(c.Notifications.WebhookURL))
	}
	return n
}

// app holds everything a scanning command needs.
type app struct {
	provider marketdata.Provider
	settings settings.Repository
	history  *history.SQLStore
	metrics  *metrics.Metrics
	scanner  *scanner.Scanner

	closers []func() error
}

type appOptions struct {
	withHistory bool
	notify      bool
}

func newApp(ctx context.Context, c *config.Config, log *slog.Logger, opts appOptions) (*app, error) {
	a := &app{metrics: metrics.New()}

	var err error
	if a.provider, err = newProvider(c); err != nil {
		return nil, err
	}

	store, closeStore, err := newSettings(ctx, c, log)
	if err != nil {
		return nil, err
	}
	a.settings = store
	a.closers = append(a.closers, closeStore)

	if opts.withHistory {
		if a.history, err = openHistory(c); err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, a.history.Close)
	}

	sc := scanner.Config{
		Provider:      a.provider,
		Settings:      a.settings,
		Metrics:       a.metrics,
		Logger:        log,
		Signals:       c.SignalOptions(),
		Interval:      market.Interval(c.Interval),
		Count:         c.MarketData.Count,
		Workers:       c.Refresh.Workers,
		MinConfidence: c.Notifications.MinConfidence,
	}
	if a.history != nil {
		sc.History = a.history
	}
	if opts.notify {
		sc.Notifier = newNotifier(c, log)
	}

	if a.scanner, err = scanner.New(sc); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
