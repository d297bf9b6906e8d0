package admission

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/faucet-go/reservation"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisStatsRecord(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	stats := NewRedisStats(rdb, WithStatsPrefix("stats:"), WithStatsTTL(time.Hour))
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 30, 15, 0, time.UTC)

	require.NoError(t, stats.Record(ctx, asset, Admitted, at))
	require.NoError(t, stats.Record(ctx, asset, Admitted, at))
	require.NoError(t, stats.Record(ctx, asset, RejectedRateLimitClient, at.Add(time.Minute)))

	assert.Equal(t, "2", mr.HGet("stats:total", "juris:admitted"))
	assert.Equal(t, "1", mr.HGet("stats:total", "juris:rate_limited_client"))
	assert.Equal(t, "2", mr.HGet("stats:minute:202403011230", "juris:admitted"))
	assert.Equal(t, "1", mr.HGet("stats:minute:202403011231", "juris:rate_limited_client"))
	assert.Equal(t, time.Hour, mr.TTL("stats:minute:202403011230"))
	assert.Zero(t, mr.TTL("stats:total"), "totals never expire")

	var nilStats *RedisStats
	assert.NoError(t, nilStats.Record(ctx, asset, Admitted, at))
}

func TestAdmitWithRedisStore(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	ctrl := NewController(reservation.NewRedisStore(rdb, window), NewRedisStats(rdb))
	ctx := context.Background()
	now := time.Now()
	dest := newReceiver(t)

	d, ticket, err := ctrl.Admit(ctx, asset, clientIP, dest, now)
	require.NoError(t, err)
	require.Equal(t, Admitted, d)

	// another client, same destination
	d, _, err = ctrl.Admit(ctx, asset, "198.51.100.9", dest, now)
	require.NoError(t, err)
	assert.Equal(t, RejectedRateLimitDestination, d)
	assert.False(t, mr.Exists("faucet:reservation:{juris}:198.51.100.9"), "rejected request reserved its client key")

	require.NoError(t, ctrl.Release(ctx, ticket))
	d, _, err = ctrl.Admit(ctx, asset, "198.51.100.9", dest, now)
	require.NoError(t, err)
	assert.Equal(t, Admitted, d)

	assert.Equal(t, "2", mr.HGet("faucet:stats:total", "juris:admitted"))
	assert.Equal(t, "1", mr.HGet("faucet:stats:total", "juris:rate_limited_destination"))
}
