package indicators

import (
	"math/rand"
	"testing"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rustyeddy/tradesense/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// candlesFromCloses builds a chronological one-minute series.
func candlesFromCloses(closes []float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Time:  baseTime.Add(time.Duration(i) * time.Minute),
			Open:  c,
			High:  c + 0.0005,
			Low:   c - 0.0005,
			Close: c,
		}
	}
	return out
}

func linear(n int, from, to float64) []float64 {
	out := make([]float64, n)
	step := (to - from) / float64(n-1)
	for i := range out {
		out[i] = from + step*float64(i)
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomWalk(n int, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	price := 1.1
	for i := range out {
		price += (r.Float64() - 0.5) * 0.002
		out[i] = price
	}
	return out
}

func TestSMA(t *testing.T) {
	v, ok := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.True(t, ok)
	assert.InDelta(t, 4.0, v, 1e-12)

	v, ok = SMA([]float64{1, 2, 3}, 3)
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-12)
}

func TestEMA(t *testing.T) {
	closes := []float64{102, 105, 106, 108}

	v, ok := EMA(closes, 3)
	require.True(t, ok)
	// seed = SMA(102,105,106); k = 0.5
	seed := (102.0 + 105.0 + 106.0) / 3.0
	assert.InDelta(t, 108.0*0.5+seed*0.5, v, 1e-9)

	t.Run("exactly period values is the SMA", func(t *testing.T) {
		v, ok := EMA(closes[:3], 3)
		require.True(t, ok)
		assert.InDelta(t, seed, v, 1e-12)
	})
}

func TestRSI(t *testing.T) {
	// deltas +1 -1 +1 +1, period 2:
	// seed gain .5 loss .5 -> gain .75 loss .25 -> gain .875 loss .125 -> RS 7
	v, ok := RSI([]float64{1, 2, 1, 2, 3}, 2)
	require.True(t, ok)
	assert.InDelta(t, 87.5, v, 1e-9)
}

func TestRSIBoundaries(t *testing.T) {
	t.Run("monotonically increasing is 100", func(t *testing.T) {
		v, ok := RSI(linear(30, 1.0, 1.3), 14)
		require.True(t, ok)
		assert.Equal(t, 100.0, v)
	})

	t.Run("monotonically decreasing is 0", func(t *testing.T) {
		v, ok := RSI(linear(30, 1.3, 1.0), 14)
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("flat is neutral", func(t *testing.T) {
		v, ok := RSI(constant(30, 1.1), 14)
		require.True(t, ok)
		assert.Equal(t, NeutralRSI, v)
	})

	t.Run("bounded for any walk", func(t *testing.T) {
		for seed := int64(1); seed <= 20; seed++ {
			v, ok := RSI(randomWalk(80, seed), 14)
			require.True(t, ok)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
	})
}

func TestBollingerBands(t *testing.T) {
	// mean 5, population std dev 2
	b, ok := BollingerBands([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
	require.True(t, ok)
	assert.InDelta(t, 5.0, b.Middle, 1e-12)
	assert.InDelta(t, 9.0, b.Upper, 1e-12)
	assert.InDelta(t, 1.0, b.Lower, 1e-12)
	assert.InDelta(t, 8.0, b.Width(), 1e-12)

	t.Run("only the last period values count", func(t *testing.T) {
		b, ok := BollingerBands([]float64{100, 2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
		require.True(t, ok)
		assert.InDelta(t, 5.0, b.Middle, 1e-12)
	})

	t.Run("upper >= middle >= lower", func(t *testing.T) {
		for seed := int64(1); seed <= 20; seed++ {
			for _, k := range []float64{0, 0.5, 2, 3} {
				b, ok := BollingerBands(randomWalk(40, seed), 20, k)
				require.True(t, ok)
				assert.GreaterOrEqual(t, b.Upper, b.Middle)
				assert.GreaterOrEqual(t, b.Middle, b.Lower)
			}
		}
	})
}

func TestInsufficientData(t *testing.T) {
	for period := 1; period <= 20; period++ {
		short := linear(period+1, 1, 2)[:period-1]

		_, ok := SMA(short, period)
		assert.False(t, ok, "SMA period %d", period)
		_, ok = EMA(short, period)
		assert.False(t, ok, "EMA period %d", period)
		_, ok = BollingerBands(short, period, 2)
		assert.False(t, ok, "Bollinger period %d", period)

		exact := linear(period+1, 1, 2)[:period]
		_, ok = RSI(exact, period)
		assert.False(t, ok, "RSI needs period+1 values (period %d)", period)
		_, ok = SMA(exact, period)
		assert.True(t, ok)
	}

	_, ok := SMA([]float64{1, 2, 3}, 0)
	assert.False(t, ok)
	_, ok = RSI([]float64{1, 2, 3}, -1)
	assert.False(t, ok)
}

func TestMatchesTALib(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		values := randomWalk(120, seed)
		last := len(values) - 1

		sma, ok := SMA(values, 20)
		require.True(t, ok)
		assert.InDelta(t, talib.Sma(values, 20)[last], sma, 1e-9)

		ema, ok := EMA(values, 20)
		require.True(t, ok)
		assert.InDelta(t, talib.Ema(values, 20)[last], ema, 1e-9)

		rsi, ok := RSI(values, 14)
		require.True(t, ok)
		assert.InDelta(t, talib.Rsi(values, 14)[last], rsi, 1e-6)

		bands, ok := BollingerBands(values, 20, 2)
		require.True(t, ok)
		upper, middle, lower := talib.BBands(values, 20, 2, 2, talib.SMA)
		assert.InDelta(t, upper[last], bands.Upper, 1e-8)
		assert.InDelta(t, middle[last], bands.Middle, 1e-9)
		assert.InDelta(t, lower[last], bands.Lower, 1e-8)
	}
}

func TestParametersValidate(t *testing.T) {
	require.NoError(t, DefaultParameters().Validate())
	assert.Equal(t, 50, DefaultParameters().Warmup())

	tests := []struct {
		name   string
		mutate func(p *Parameters)
		errMsg string
	}{
		{"zero bollinger period", func(p *Parameters) { p.BollingerPeriod = 0 }, "bollinger_period"},
		{"negative stddev", func(p *Parameters) { p.BollingerStdDev = -1 }, "bollinger_stddev"},
		{"zero rsi period", func(p *Parameters) { p.RSIPeriod = 0 }, "rsi_period"},
		{"oversold out of range", func(p *Parameters) { p.RSIOversold = -5 }, "rsi_oversold"},
		{"overbought out of range", func(p *Parameters) { p.RSIOverbought = 101 }, "rsi_overbought"},
		{"oversold above overbought", func(p *Parameters) { p.RSIOversold = 80 }, "must be below rsi_overbought"},
		{"oversold equals overbought", func(p *Parameters) { p.RSIOversold, p.RSIOverbought = 50, 50 }, "must be below rsi_overbought"},
		{"fast not below slow", func(p *Parameters) { p.MAFast = 50 }, "ma_fast"},
		{"zero slow", func(p *Parameters) { p.MASlow = 0 }, "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameters)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
