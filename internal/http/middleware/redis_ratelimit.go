package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter shared by every replica through Redis.
type RedisLimiter struct {
	client *redis.Client
	max    int
	period time.Duration
	prefix string
}

// NewRedisLimiter allows max requests per period for each key.
func NewRedisLimiter(client *redis.Client, max int, period time.Duration) *RedisLimiter {
	if client == nil {
		panic("middleware: redis client cannot be nil")
	}
	return &RedisLimiter{client: client, max: max, period: period, prefix: "ratelimit:analyze"}
}

func (l *RedisLimiter) Name() string { return "redis" }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	// ExpireNX in the same MULTI gives every counter a TTL, including one left
	// without a TTL by an older writer.
	var incr *redis.IntCmd
	var ttlCmd *redis.DurationCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.period)
		ttlCmd = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return Decision{}, err
	}
	count := incr.Val()

	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = l.period
	}

	return Decision{
		Allowed:   int(count) <= l.max,
		Limit:     l.max,
		Remaining: max(l.max-int(count), 0),
		Reset:     ttl,
	}, nil
}
