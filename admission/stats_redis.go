package admission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStats counts decisions per asset in redis hashes:
//
//	<prefix>:total                 field <asset>:<decision>
//	<prefix>:minute:<yyyymmddHHMM> field <asset>:<decision>, expires after ttl
type RedisStats struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

type RedisStatsOption func(*RedisStats)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStats) { s.prefix = strings.Trim(prefix, ":") }
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStats) { s.ttl = d }
}

func NewRedisStats(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStats {
	s := &RedisStats{
		rdb:    rdb,
		prefix: "faucet:stats",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStats) Record(ctx context.Context, asset string, d Decision, at time.Time) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}

	field := asset + ":" + d.String()
	bucketKey := fmt.Sprintf("%s:minute:%s", s.prefix, at.UTC().Format("200601021504"))

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.prefix+":total", field, 1)
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	if s.ttl > 0 {
		pipe.Expire(ctx, bucketKey, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}
