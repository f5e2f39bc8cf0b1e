package indicators

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rustyeddy/tradesense/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSnapshotEmpty(t *testing.T) {
	_, ok := BuildSnapshot(nil, DefaultParameters())
	assert.False(t, ok)

	_, ok = BuildSnapshot([]market.Candle{}, DefaultParameters())
	assert.False(t, ok)
}

func TestBuildSnapshotInsufficient(t *testing.T) {
	p := DefaultParameters()

	_, ok := BuildSnapshot(candlesFromCloses(randomWalk(p.Warmup()-1, 7)), p)
	assert.False(t, ok)

	closes := randomWalk(p.Warmup(), 7)
	snap, ok := BuildSnapshot(candlesFromCloses(closes), p)
	require.True(t, ok)
	assert.Equal(t, closes[len(closes)-1], snap.Price)

	t.Run("slope follows the latest candle", func(t *testing.T) {
		p := Parameters{BollingerPeriod: 5, BollingerStdDev: 2, RSIPeriod: 4, RSIOverbought: 70, RSIOversold: 30, MAFast: 5, MASlow: 6}
		snap, ok := BuildSnapshot(candlesFromCloses([]float64{1, 2, 3, 4, 5, 6}), p)
		require.True(t, ok)
		// EMA(5) over 1..6 is 3 + (6-3)/3; over 1..5 it is the seed 3
		assert.InDelta(t, 1.0, snap.MovingAverages.FastSlope, 1e-12)
	})
}

func TestBuildSnapshotReverseChronological(t *testing.T) {
	p := Parameters{
		BollingerPeriod: 10,
		BollingerStdDev: 2,
		RSIPeriod:       10,
		RSIOverbought:   70,
		RSIOversold:     30,
		MAFast:          5,
		MASlow:          10,
	}

	// newest first: index 0 holds 20 and the latest timestamp
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, 20)
	for i := range candles {
		v := float64(20 - i)
		candles[i] = market.Candle{Time: now.Add(-time.Duration(i) * time.Minute), Open: v, High: v + 0.5, Low: v - 0.5, Close: v}
	}

	snap, ok := BuildSnapshot(candles, p)
	require.True(t, ok)
	assert.Equal(t, now, snap.Time)
	assert.InDelta(t, 20.0, snap.Price, 1e-12)
	assert.InDelta(t, 18.0, snap.MovingAverages.SMAFast, 1e-9)
	assert.InDelta(t, 15.5, snap.MovingAverages.SMASlow, 1e-9)
	assert.InDelta(t, 15.5, snap.Bollinger.Middle, 1e-9)
	assert.Greater(t, snap.Bollinger.Upper, snap.Bollinger.Middle)
	assert.Less(t, snap.Bollinger.Lower, snap.Bollinger.Middle)
	assert.Equal(t, 100.0, snap.RSI)
	assert.Greater(t, snap.MovingAverages.FastSlope, 0.0)
}

func TestBuildSnapshotIdempotent(t *testing.T) {
	p := DefaultParameters()
	candles := candlesFromCloses(randomWalk(90, 11))

	first, ok := BuildSnapshot(candles, p)
	require.True(t, ok)

	again, ok := BuildSnapshot(candles, p)
	require.True(t, ok)
	assert.Equal(t, first, again)

	shuffled := make([]market.Candle, len(candles))
	copy(shuffled, candles)
	r := rand.New(rand.NewSource(3))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	fromShuffled, ok := BuildSnapshot(shuffled, p)
	require.True(t, ok)
	assert.Equal(t, first, fromShuffled)
}

func TestBuildSnapshotFlatSeries(t *testing.T) {
	snap, ok := BuildSnapshot(candlesFromCloses(constant(60, 1.1)), DefaultParameters())
	require.True(t, ok)

	assert.InDelta(t, 1.1, snap.Bollinger.Upper, 1e-12)
	assert.InDelta(t, 1.1, snap.Bollinger.Middle, 1e-12)
	assert.InDelta(t, 1.1, snap.Bollinger.Lower, 1e-12)
	assert.Equal(t, NeutralRSI, snap.RSI)
	assert.InDelta(t, 1.1, snap.MovingAverages.EMAFast, 1e-12)
	assert.InDelta(t, 1.1, snap.MovingAverages.EMASlow, 1e-12)
}

func TestBuildSnapshotDescendingSeries(t *testing.T) {
	snap, ok := BuildSnapshot(candlesFromCloses(linear(60, 1.3, 1.2)), DefaultParameters())
	require.True(t, ok)

	assert.Equal(t, 0.0, snap.RSI)
	assert.InDelta(t, 1.2, snap.Price, 1e-12)
	assert.Less(t, snap.MovingAverages.EMAFast, snap.MovingAverages.EMASlow)
	assert.Less(t, snap.MovingAverages.FastSlope, 0.0)
	assert.LessOrEqual(t, snap.Price, snap.Bollinger.Lower*1.005)
}

func TestBuildSnapshotToleratesMalformedCandles(t *testing.T) {
	candles := candlesFromCloses(randomWalk(60, 5))
	// high below low: still computed from closes
	candles[10].High, candles[10].Low = candles[10].Low, candles[10].High+1

	_, ok := BuildSnapshot(candles, DefaultParameters())
	assert.True(t, ok)
}
