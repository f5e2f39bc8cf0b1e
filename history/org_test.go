package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/tradesense/signals"
)

func TestFormatSignalOrg(t *testing.T) {
	t.Parallel()

	s := sig("EUR/USD", signals.Buy, t0, 0.72)
	s.Rationale = []string{"Price touched the lower Bollinger band", "RSI is oversold"}

	result := FormatSignalOrg(s)

	assert.True(t, strings.HasPrefix(result, "** Signal: EUR/USD BUY ("+s.ID[len(s.ID)-8:]+")"))
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":SIGNAL_ID: "+s.ID)
	assert.Contains(t, result, ":PAIR: EUR/USD")
	assert.Contains(t, result, ":DIRECTION: buy")
	assert.Contains(t, result, ":CONFIDENCE: 0.72")
	assert.Contains(t, result, ":CREATED_AT: 2024-05-06T14:30:00Z")
	assert.Contains(t, result, ":BB_UPPER: 1.20000")
	assert.Contains(t, result, ":RSI: 25.50")
	assert.Contains(t, result, ":END:")
	assert.Contains(t, result, "*** Rationale\n- Price touched the lower Bollinger band\n- RSI is oversold\n")
	assert.Contains(t, result, "*** Review")
}

func TestFormatSignalsOrg(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", FormatSignalsOrg(nil))

	a := sig("EUR/USD", signals.Buy, t0, 0.7)
	b := sig("GBP/USD", signals.Sell, t0, 0.8)
	out := FormatSignalsOrg([]signals.Signal{a, b})

	assert.Equal(t, 2, strings.Count(out, "** Signal:"))
	assert.Contains(t, out, "- \n\n\n** Signal: GBP/USD SELL")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("EUR-USD:buy:0000-12345678"))
}
