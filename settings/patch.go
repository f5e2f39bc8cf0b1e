package settings

import (
	"github.com/rustyeddy/tradesense/market"
)

// IndicatorPatch overrides individual indicator parameters.
type IndicatorPatch struct {
	BollingerPeriod *int     `json:"bollinger_period,omitempty"`
	BollingerStdDev *float64 `json:"bollinger_stddev,omitempty"`
	RSIPeriod       *int     `json:"rsi_period,omitempty"`
	RSIOverbought   *float64 `json:"rsi_overbought,omitempty"`
	RSIOversold     *float64 `json:"rsi_oversold,omitempty"`
	MAFast          *int     `json:"ma_fast,omitempty"`
	MASlow          *int     `json:"ma_slow,omitempty"`
}

type NotificationPatch struct {
	Enabled         *bool `json:"enabled,omitempty"`
	IntervalMinutes *int  `json:"interval_minutes,omitempty"`
}

// Patch is a partial update. Nil fields leave the current value alone.
type Patch struct {
	PreferredPairs      []market.Pair      `json:"preferred_pairs,omitempty"`
	AutoRefreshInterval *market.Interval   `json:"auto_refresh_interval,omitempty"`
	Indicators          *IndicatorPatch    `json:"indicator_parameters,omitempty"`
	Notifications       *NotificationPatch `json:"notification_preference,omitempty"`
}

func (p Patch) Empty() bool {
	return p.PreferredPairs == nil && p.AutoRefreshInterval == nil &&
		p.Indicators == nil && p.Notifications == nil
}

// Apply merges p over s and validates the result. s is not modified.
func (p Patch) Apply(s Settings) (Settings, error) {
	next := s
	next.PreferredPairs = append([]market.Pair(nil), s.PreferredPairs...)

	if p.PreferredPairs != nil {
		next.PreferredPairs = append([]market.Pair(nil), p.PreferredPairs...)
	}
	if p.AutoRefreshInterval != nil {
		next.AutoRefreshInterval = *p.AutoRefreshInterval
	}

	if ip := p.Indicators; ip != nil {
		set(&next.Indicators.BollingerPeriod, ip.BollingerPeriod)
		set(&next.Indicators.BollingerStdDev, ip.BollingerStdDev)
		set(&next.Indicators.RSIPeriod, ip.RSIPeriod)
		set(&next.Indicators.RSIOverbought, ip.RSIOverbought)
		set(&next.Indicators.RSIOversold, ip.RSIOversold)
		set(&next.Indicators.MAFast, ip.MAFast)
		set(&next.Indicators.MASlow, ip.MASlow)
	}

	if np := p.Notifications; np != nil {
		set(&next.Notifications.Enabled, np.Enabled)
		set(&next.Notifications.IntervalMinutes, np.IntervalMinutes)
	}

	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
