package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Check every key in order, bail out on the first live one,
// otherwise reserve all of them. Runs atomically on the redis server.
var reserveAllScript = redis.NewScript(`
for i, key in ipairs(KEYS) do
	if redis.call('EXISTS', key) == 1 then
		return i - 1
	end
end
for _, key in ipairs(KEYS) do
	redis.call('SET', key, ARGV[1], 'PX', ARGV[2])
end
return -1
`)

var _ Store = (*RedisStore)(nil)
var _ Sweeper = (*RedisStore)(nil)

// RedisStore keeps reservations in redis so several faucet replicas share
// the same limits. Expiry is left to redis (PX), the now argument only
// becomes the stored value.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	window time.Duration
}

type RedisStoreOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func NewRedisStore(rdb redis.UniversalClient, window time.Duration, opts ...RedisStoreOption) *RedisStore {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &RedisStore{
		rdb:    rdb,
		prefix: "faucet:reservation",
		window: window,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Window() time.Duration { return s.window }

// Sweep is a no-op, redis expires the keys itself.
func (s *RedisStore) Sweep(time.Time) int { return 0 }

// The namespace is a hash tag: the keys of one admission share a cluster
// slot, so the multi key script also runs behind a redis cluster.
func (s *RedisStore) redisKey(key Key) string {
	return fmt.Sprintf("%s:{%s}:%s", s.prefix, key.Namespace, key.Identity)
}

func (s *RedisStore) TryReserve(ctx context.Context, key Key, now time.Time) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.redisKey(key), now.UnixMilli(), s.window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve %s: %w", key, err)
	}
	return ok, nil
}

func (s *RedisStore) ReserveAll(ctx context.Context, now time.Time, keys ...Key) (int, error) {
	if len(keys) == 0 {
		return 0, ErrNoKeys
	}

	redisKeys := make([]string, len(keys))
	for i, key := range keys {
		redisKeys[i] = s.redisKey(key)
	}

	blocked, err := reserveAllScript.Run(ctx, s.rdb, redisKeys, now.UnixMilli(), s.window.Milliseconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to reserve %d keys: %w", len(keys), err)
	}
	return blocked, nil
}

func (s *RedisStore) Release(ctx context.Context, key Key) error {
	if err := s.rdb.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Remaining(ctx context.Context, key Key, _ time.Time) (time.Duration, error) {
	ttl, err := s.rdb.PTTL(ctx, s.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	// -2: no key, -1: no expiry (never set by us)
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
