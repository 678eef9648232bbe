package redis

import (
	"context"
	"fmt"

	"github.com/pscheid92/ballotbot/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient connects to the Redis instance at redisURL (e.g.
// "redis://localhost:6379/0") and guards every command with a circuit
// breaker. Both metric sets may be nil.
func NewClient(ctx context.Context, redisURL string, rm *metrics.RedisMetrics, cbm *metrics.CircuitBreakerMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if rm != nil {
		rdb.AddHook(NewMetricsHook(rm))
	}
	rdb.AddHook(NewCircuitBreakerHook(cbm))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
