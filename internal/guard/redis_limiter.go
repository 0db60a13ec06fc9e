package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/raidroster/api/internal/domain"
)

// slidingWindowScript keeps one sorted-set member per admitted request, scored
// in milliseconds. Members at or before now-window have left the window.
// Returns {allowed, count, oldest}.
var slidingWindowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
  return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisRateLimiter is the sliding-window RateLimiter with its log kept in Redis,
// so every replica sees the same window.
type RedisRateLimiter struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisRateLimiter creates a shared sliding-window limiter under prefix.
func NewRedisRateLimiter(client redis.Scripter, prefix string, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Check consumes one slot for key. Redis errors fail open and are reported in Reason.
func (l *RedisRateLimiter) Check(ctx context.Context, key string) domain.GuardResult {
	nowMs := l.now().UnixMilli()
	windowMs := l.window.Milliseconds()

	vals, err := slidingWindowScript.Run(ctx, l.client,
		[]string{l.prefix + ":" + key},
		nowMs, windowMs, l.limit, fmt.Sprintf("%d-%s", nowMs, uuid.NewString()),
	).Int64Slice()
	if err != nil || len(vals) != 3 {
		if err == nil {
			err = fmt.Errorf("unexpected script reply %v", vals)
		}
		return domain.GuardResult{
			Allowed: true,
			Reason:  fmt.Sprintf("limiter store unavailable: %v", err),
			Guard:   "rate_limiter",
		}
	}

	if vals[0] == 0 {
		retry := time.Duration(vals[2]+windowMs-nowMs) * time.Millisecond
		if retry < 0 {
			retry = 0
		}
		return domain.GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("rate limit exceeded: %d/%s", l.limit, l.window),
			Guard:   "rate_limiter",
			Limit:   l.limit,
			RetryIn: retry,
		}
	}
	return domain.GuardResult{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - int(vals[1]),
	}
}
