package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDefault(t *testing.T) {
	d := Default()
	require.NoError(t, d.Validate())
	assert.Equal(t, market.SupportedPairs, d.PreferredPairs)
	assert.Equal(t, indicators.DefaultParameters(), d.Indicators)
	assert.False(t, d.Notifications.Enabled)
	assert.Equal(t, 15, d.Notifications.IntervalMinutes)
	assert.Equal(t, market.Interval15Min, d.AutoRefreshInterval)

	// mutating the copy must not leak into the package defaults
	d.PreferredPairs[0] = market.MustParsePair("USD/CHF")
	assert.Equal(t, market.MustParsePair("EUR/USD"), market.SupportedPairs[0])
}

func TestPairsFallback(t *testing.T) {
	s := Default()
	s.PreferredPairs = nil
	assert.Equal(t, market.SupportedPairs, s.Pairs())

	s.PreferredPairs = []market.Pair{market.MustParsePair("GBP/USD")}
	assert.Len(t, s.Pairs(), 1)
}

func TestPatchApply(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		check func(t *testing.T, got Settings)
		err   string
	}{
		{
			name:  "empty patch keeps settings",
			patch: Patch{},
			check: func(t *testing.T, got Settings) { assert.Equal(t, Default(), got) },
		},
		{
			name:  "partial indicator update",
			patch: Patch{Indicators: &IndicatorPatch{RSIPeriod: ptr(9), RSIOverbought: ptr(80.0)}},
			check: func(t *testing.T, got Settings) {
				assert.Equal(t, 9, got.Indicators.RSIPeriod)
				assert.Equal(t, 80.0, got.Indicators.RSIOverbought)
				assert.Equal(t, 30.0, got.Indicators.RSIOversold)
				assert.Equal(t, 20, got.Indicators.BollingerPeriod)
			},
		},
		{
			name:  "notification toggle keeps interval",
			patch: Patch{Notifications: &NotificationPatch{Enabled: ptr(true)}},
			check: func(t *testing.T, got Settings) {
				assert.True(t, got.Notifications.Enabled)
				assert.Equal(t, 15, got.Notifications.IntervalMinutes)
			},
		},
		{
			name: "pairs and interval",
			patch: Patch{
				PreferredPairs:      []market.Pair{market.MustParsePair("USD/JPY")},
				AutoRefreshInterval: ptr(market.Interval5Min),
			},
			check: func(t *testing.T, got Settings) {
				assert.Equal(t, []market.Pair{market.MustParsePair("USD/JPY")}, got.PreferredPairs)
				assert.Equal(t, market.Interval5Min, got.AutoRefreshInterval)
			},
		},
		{
			name:  "oversold above overbought rejected",
			patch: Patch{Indicators: &IndicatorPatch{RSIOversold: ptr(75.0)}},
			err:   "rsi_oversold",
		},
		{
			name:  "fast ma not below slow rejected",
			patch: Patch{Indicators: &IndicatorPatch{MAFast: ptr(60)}},
			err:   "ma_fast",
		},
		{
			name:  "unknown interval rejected",
			patch: Patch{AutoRefreshInterval: ptr(market.Interval("4h"))},
			err:   "auto_refresh_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Default()
			got, err := tt.patch.Apply(base)
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				assert.Equal(t, Default(), got)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
			assert.Equal(t, Default(), base)
		})
	}
}

func TestPatchJSON(t *testing.T) {
	var p Patch
	require.NoError(t, json.Unmarshal([]byte(`{"indicator_parameters":{"ma_fast":10},"notification_preference":{"enabled":true}}`), &p))
	require.NotNil(t, p.Indicators)
	require.NotNil(t, p.Indicators.MAFast)
	assert.Equal(t, 10, *p.Indicators.MAFast)
	assert.Nil(t, p.Indicators.MASlow)
	assert.Nil(t, p.AutoRefreshInterval)
	assert.False(t, p.Empty())
}

// exerciseRepository runs the behaviour every Repository must share.
func exerciseRepository(t *testing.T, repo Repository, defaults Settings) {
	ctx := context.Background()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)

	updated, err := repo.Update(ctx, Patch{
		Indicators:    &IndicatorPatch{BollingerStdDev: ptr(2.5)},
		Notifications: &NotificationPatch{Enabled: ptr(true), IntervalMinutes: ptr(30)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, updated.Indicators.BollingerStdDev)
	assert.True(t, updated.Notifications.Enabled)

	again, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, again)

	_, err = repo.Update(ctx, Patch{Indicators: &IndicatorPatch{RSIPeriod: ptr(0)}})
	require.ErrorIs(t, err, ErrInvalid)
	require.ErrorIs(t, err, indicators.ErrInvalidParameters)

	unchanged, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)

	reset, err := repo.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, reset)

	got, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

// tunedDefaults stands in for defaults built from a config file.
func tunedDefaults() Settings {
	d := Default()
	d.PreferredPairs = []market.Pair{market.MustParsePair("GBP/USD")}
	d.Indicators.RSIPeriod = 7
	d.Indicators.MAFast = 10
	d.AutoRefreshInterval = market.Interval5Min
	return d
}

func TestMemoryStore(t *testing.T) {
	tests := []struct {
		name     string
		defaults Settings
	}{
		{"built-in defaults", Default()},
		{"tuned defaults", tunedDefaults()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exerciseRepository(t, NewMemoryStore(tt.defaults), tt.defaults)
		})
	}
}

func TestMemoryStoreKeepsOwnDefaults(t *testing.T) {
	ctx := context.Background()
	d := tunedDefaults()
	m := NewMemoryStore(d)
	d.PreferredPairs[0] = market.MustParsePair("USD/CHF")
	d.Indicators.RSIPeriod = 21

	got, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, tunedDefaults(), got)

	reset, err := m.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, tunedDefaults(), reset)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(Default())

	s, err := m.Get(ctx)
	require.NoError(t, err)
	s.PreferredPairs[0] = market.MustParsePair("USD/CHF")

	again, err := m.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, market.MustParsePair("EUR/USD"), again.PreferredPairs[0])
}

func TestDecode(t *testing.T) {
	s, err := decode([]byte(`{"preferred_pairs":["GBP/USD"],"indicator_parameters":{"rsi_period":7}}`), Default())
	require.NoError(t, err)
	assert.Equal(t, []market.Pair{market.MustParsePair("GBP/USD")}, s.PreferredPairs)
	assert.Equal(t, 7, s.Indicators.RSIPeriod)
	assert.Equal(t, 20, s.Indicators.BollingerPeriod)
	assert.Equal(t, market.Interval15Min, s.AutoRefreshInterval)

	_, err = decode([]byte(`{not json`), Default())
	assert.Error(t, err)

	_, err = decode([]byte(`{"indicator_parameters":{"ma_fast":80}}`), Default())
	assert.Error(t, err)

	_, err = decode([]byte(`{"preferred_pairs":["EURO"]}`), Default())
	assert.Error(t, err)
}

func TestDecodeFillsFromDefaults(t *testing.T) {
	s, err := decode([]byte(`{"notification_preference":{"enabled":true}}`), tunedDefaults())
	require.NoError(t, err)
	assert.True(t, s.Notifications.Enabled)
	assert.Equal(t, 7, s.Indicators.RSIPeriod)
	assert.Equal(t, 10, s.Indicators.MAFast)
	assert.Equal(t, market.Interval5Min, s.AutoRefreshInterval)
}
