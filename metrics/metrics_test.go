package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCycle(t *testing.T) {
	m := New()
	start := time.Unix(1_700_000_000, 0)

	m.ObserveCycle(start, start.Add(1500*time.Millisecond))
	m.ObserveCycle(start, start.Add(2*time.Second))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CyclesTotal))
	assert.Equal(t, float64(start.Add(2*time.Second).Unix()), testutil.ToFloat64(m.LastCycle))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CycleDuration))
}

func TestLabelledCounters(t *testing.T) {
	m := New()
	m.SignalsTotal.WithLabelValues("EUR/USD", "buy").Inc()
	m.SignalsTotal.WithLabelValues("EUR/USD", "buy").Inc()
	m.SignalsTotal.WithLabelValues("GBP/USD", "sell").Inc()
	m.FetchErrors.WithLabelValues("USD/JPY").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("EUR/USD", "buy")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.SignalsTotal))

	expected := `
# HELP tradesense_fetch_errors_total Market data fetch failures per pair
# TYPE tradesense_fetch_errors_total counter
tradesense_fetch_errors_total{pair="USD/JPY"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.FetchErrors, strings.NewReader(expected)))
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.CyclesTotal.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CyclesTotal))
}

func TestHandler(t *testing.T) {
	m := New()
	m.NotifyErrors.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "tradesense_notify_errors_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}
