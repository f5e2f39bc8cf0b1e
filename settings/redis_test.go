package settings

import (
	"context"
	"os"
	"testing"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rustyeddy/tradesense/market"
	"github.com/rustyeddy/tradesense/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// redisClient connects to REDIS_ADDR or skips the test.
func redisClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func testKey(t *testing.T, rdb *goredis.Client) string {
	key := "tradesense:test:settings:" + id.New()
	t.Cleanup(func() { rdb.Del(context.Background(), key) })
	return key
}

func TestRedisStore(t *testing.T) {
	rdb := redisClient(t)
	exerciseRepository(t, NewRedisStore(rdb, testKey(t, rdb), Default(), nil), Default())
}

func TestRedisStoreCorruptDocument(t *testing.T) {
	rdb := redisClient(t)
	key := testKey(t, rdb)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, key, "{broken", 0).Err())

	s, err := NewRedisStore(rdb, key, Default(), nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, Default(), s)

	// defaults were written back
	raw, err := rdb.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Contains(t, raw, `"preferred_pairs"`)
}

func TestRedisStorePartialDocument(t *testing.T) {
	rdb := redisClient(t)
	key := testKey(t, rdb)
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, key, `{"auto_refresh_interval":"5min"}`, 0).Err())

	s, err := NewRedisStore(rdb, key, Default(), nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5min", s.AutoRefreshInterval.String())
	assert.Equal(t, Default().Indicators, s.Indicators)
}

func TestRedisStoreSeedsConfiguredDefaults(t *testing.T) {
	rdb := redisClient(t)
	key := testKey(t, rdb)
	ctx := context.Background()

	s, err := NewRedisStore(rdb, key, tunedDefaults(), nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, tunedDefaults(), s)

	require.NoError(t, rdb.Set(ctx, key, `{"auto_refresh_interval":"60min"}`, 0).Err())
	s, err = NewRedisStore(rdb, key, tunedDefaults(), nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, market.Interval60Min, s.AutoRefreshInterval)
	assert.Equal(t, 7, s.Indicators.RSIPeriod)
}
