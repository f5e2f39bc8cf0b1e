package oanda

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/marketdata"
	"github.com/stretchr/testify/require"
)

func candlesHandler(t *testing.T, check func(r *http.Request)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		resp := map[string]any{
			"instrument":  "EUR_USD",
			"granularity": "M1",
			"candles": []map[string]any{
				{
					"complete": true,
					"time":     "2024-01-01T00:00:00.000000000Z",
					"volume":   10,
					"mid": map[string]string{
						"o": "1.1", "h": "1.2", "l": "1.0", "c": "1.15",
					},
				},
				{
					"complete": false,
					"time":     "2024-01-01T00:01:00.000000000Z",
					"volume":   5,
					"mid": map[string]string{
						"o": "1.15", "h": "1.16", "l": "1.14", "c": "1.15",
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func TestFetchCandles_MissingInputs(t *testing.T) {
	t.Parallel()

	opts := CandlesOptions{Instrument: "EUR_USD", Granularity: "M1"}

	tests := []struct {
		name   string
		client Client
		opts   CandlesOptions
		want   string
	}{
		{
			name:   "missing token",
			client: Client{BaseURL: "http://example.com"},
			opts:   opts,
			want:   "missing token",
		},
		{
			name:   "missing base url",
			client: Client{Token: "t"},
			opts:   opts,
			want:   "missing base url",
		},
		{
			name:   "missing instrument",
			client: Client{Token: "t", BaseURL: "http://example.com"},
			opts:   CandlesOptions{Granularity: "M1"},
			want:   "missing instrument",
		},
		{
			name:   "missing granularity",
			client: Client{Token: "t", BaseURL: "http://example.com"},
			opts:   CandlesOptions{Instrument: "EUR_USD"},
			want:   "missing granularity",
		},
		{
			name:   "bid ask",
			client: Client{Token: "t", BaseURL: "http://example.com"},
			opts:   CandlesOptions{Instrument: "EUR_USD", Granularity: "M1", Price: "BA"},
			want:   "price=BA not supported",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.client.FetchCandles(context.Background(), tt.opts)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDownloadCandlesToCSV_DefaultPrice(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(candlesHandler(t, func(r *http.Request) {
		require.Equal(t, "/v3/instruments/EUR_USD/candles", r.URL.Path)
		require.Equal(t, "M1", r.URL.Query().Get("granularity"))
		require.Equal(t, "M", r.URL.Query().Get("price"))
		require.Equal(t, "2", r.URL.Query().Get("count"))
		require.Equal(t, "Bearer token", r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	client := Client{BaseURL: srv.URL, Token: "token"}

	var buf bytes.Buffer
	written, err := client.DownloadCandlesToCSV(
		context.Background(),
		CandlesOptions{Instrument: "EUR_USD", Granularity: "M1", Count: 2},
		&buf,
	)
	require.NoError(t, err)
	require.Equal(t, 2, written)

	rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"time", "instrument", "granularity", "complete", "volume", "o", "h", "l", "c"}, rows[0])
	require.Equal(t, []string{"2024-01-01T00:00:00Z", "EUR_USD", "M1", "true", "10", "1.1", "1.2", "1", "1.15"}, rows[1])
	require.Equal(t, []string{"2024-01-01T00:01:00Z", "EUR_USD", "M1", "false", "5", "1.15", "1.16", "1.14", "1.15"}, rows[2])
}

func TestCandlesProvider(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(candlesHandler(t, func(r *http.Request) {
		require.Equal(t, "/v3/instruments/EUR_USD/candles", r.URL.Path)
		require.Equal(t, "M15", r.URL.Query().Get("granularity"))
		require.Equal(t, "100", r.URL.Query().Get("count"))
	}))
	defer srv.Close()

	client := New(srv.URL, "token")
	req := marketdata.Request{Pair: market.MustParsePair("EUR/USD")}

	got, err := client.Candles(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got[0].Time)
	require.InDelta(t, 1.15, got[0].Close, 1e-12)
	require.Equal(t, 10.0, got[0].Volume)

	client.IncludeIncomplete = true
	got, err = client.Candles(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestFetchCandles_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessage":"Insufficient authorization"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "bad").FetchCandles(context.Background(), CandlesOptions{Instrument: "EUR_USD", Granularity: "M1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "oanda candles http 401")
}

func TestBaseURL(t *testing.T) {
	u, err := BaseURL("practice")
	require.NoError(t, err)
	require.Equal(t, PracticeURL, u)

	u, err = BaseURL("LIVE")
	require.NoError(t, err)
	require.Equal(t, LiveURL, u)

	_, err = BaseURL("sandbox")
	require.Error(t, err)
}
