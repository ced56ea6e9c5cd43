package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "peoplemover:ratelimit:"
	redisCallTimeout = 250 * time.Millisecond
)

// fixedWindowScript increments the counter, starts the window on the first
// hit and returns {count, remaining ttl in ms}.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRateLimiter returns a RateLimiter shared by every API instance that
// points at the same Redis database. It fails when Redis cannot be reached.
func NewRedisRateLimiter(addr, password string, db int, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &redisRateLimiter{client: client, logger: logger}, nil
}

// Allow fails open when Redis errors so an outage does not take the API down.
func (rl *redisRateLimiter) Allow(key string, limit int, length time.Duration) rateDecision {
	if limit <= 0 {
		return rateDecision{allowed: true}
	}
	if length <= 0 {
		length = rateWindowDefault
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	res, err := fixedWindowScript.Run(ctx, rl.client, []string{redisKeyPrefix + key}, length.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		if rl.logger != nil {
			rl.logger.Error("redis rate limiter failed", "key", key, "error", err)
		}
		return rateDecision{allowed: true}
	}
	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if ttl <= 0 {
		ttl = length
	}
	return rateDecision{
		allowed: count <= limit,
		count:   count,
		resetAt: time.Now().Add(ttl),
	}
}

func (rl *redisRateLimiter) Close() {
	_ = rl.client.Close()
}
