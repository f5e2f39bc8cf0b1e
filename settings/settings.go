// Package settings holds per-user preferences: monitored pairs, indicator
// parameters, notification preference and refresh interval.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
)

// DefaultNotificationMinutes matches the default refresh interval.
const DefaultNotificationMinutes = 15

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid settings")

type Notifications struct {
	Enabled         bool `json:"enabled"`
	IntervalMinutes int  `json:"interval_minutes"`
}

type Settings struct {
	PreferredPairs      []market.Pair         `json:"preferred_pairs"`
	Indicators          indicators.Parameters `json:"indicator_parameters"`
	Notifications       Notifications         `json:"notification_preference"`
	AutoRefreshInterval market.Interval       `json:"auto_refresh_interval"`
}

func Default() Settings {
	return Settings{
		PreferredPairs: append([]market.Pair(nil), market.SupportedPairs...),
		Indicators:     indicators.DefaultParameters(),
		Notifications: Notifications{
			Enabled:         false,
			IntervalMinutes: DefaultNotificationMinutes,
		},
		AutoRefreshInterval: market.DefaultInterval,
	}
}

func (s Settings) Validate() error {
	if err := s.Indicators.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if !s.AutoRefreshInterval.Valid() {
		return fmt.Errorf("%w: unsupported auto_refresh_interval %q", ErrInvalid, s.AutoRefreshInterval)
	}
	if s.Notifications.IntervalMinutes < 0 {
		return fmt.Errorf("%w: notification interval_minutes must not be negative", ErrInvalid)
	}
	for _, p := range s.PreferredPairs {
		if p.IsZero() {
			return fmt.Errorf("%w: empty preferred pair", ErrInvalid)
		}
	}
	return nil
}

// Pairs returns the preferred pairs, or every supported pair when none are
// set.
func (s Settings) Pairs() []market.Pair {
	if len(s.PreferredPairs) > 0 {
		return s.PreferredPairs
	}
	return market.SupportedPairs
}

// Repository persists a single Settings document.
type Repository interface {
	// Get returns the stored settings, falling back to (and persisting)
	// defaults when nothing usable is stored.
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, p Patch) (Settings, error)
	Reset(ctx context.Context) (Settings, error)
}
