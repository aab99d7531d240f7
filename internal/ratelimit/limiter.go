// Package ratelimit throttles cart mutations per authenticated user.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewRedisLimiter builds a fixed window limiter allowing perMinute requests
// per key, counted in Redis so every API replica shares the budget.
func NewRedisLimiter(rdb *redis.Client, prefix string, perMinute int64) (*limiter.Limiter, error) {
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:   prefix,
		MaxRetry: 3,
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return New(store, perMinute), nil
}

// New builds a limiter over store allowing perMinute requests per key.
func New(store limiter.Store, perMinute int64) *limiter.Limiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return limiter.New(store, limiter.Rate{Period: time.Minute, Limit: perMinute})
}
