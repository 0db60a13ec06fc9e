package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/raidroster/api/internal/domain"
)

// StoreLimiter is a fixed-window Limiter over a ulule limiter store. A caller
// can get up to twice the limit through across a window boundary, so it only
// backs the coarse per-IP request throttle. Budgets that must hold over any
// rolling window use RateLimiter or RedisRateLimiter.
type StoreLimiter struct {
	instance *limiter.Limiter
}

// NewStoreLimiter wraps an arbitrary limiter store.
func NewStoreLimiter(store limiter.Store, limit int, window time.Duration) *StoreLimiter {
	rate := limiter.Rate{Period: window, Limit: int64(limit)}
	return &StoreLimiter{instance: limiter.New(store, rate)}
}

// NewMemoryLimiter keeps counters in process memory.
func NewMemoryLimiter(prefix string, limit int, window time.Duration) *StoreLimiter {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: window,
	})
	return NewStoreLimiter(store, limit, window)
}

// NewRedisStoreLimiter keeps counters in Redis under prefix.
func NewRedisStoreLimiter(client *redis.Client, prefix string, limit int, window time.Duration) (*StoreLimiter, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("redis limiter store: %w", err)
	}
	return NewStoreLimiter(store, limit, window), nil
}

// Check consumes one slot for key. Store errors fail open and are reported in Reason.
func (l *StoreLimiter) Check(ctx context.Context, key string) domain.GuardResult {
	lc, err := l.instance.Get(ctx, key)
	if err != nil {
		return domain.GuardResult{
			Allowed: true,
			Reason:  fmt.Sprintf("limiter store unavailable: %v", err),
			Guard:   "rate_limiter",
		}
	}

	res := domain.GuardResult{
		Allowed:   !lc.Reached,
		Limit:     int(lc.Limit),
		Remaining: int(lc.Remaining),
	}
	if lc.Reached {
		res.Reason = fmt.Sprintf("rate limit exceeded: %d/%s", lc.Limit, l.instance.Rate.Period)
		res.Guard = "rate_limiter"
		res.RetryIn = time.Until(time.Unix(lc.Reset, 0))
		if res.RetryIn < 0 {
			res.RetryIn = 0
		}
	}
	return res
}
