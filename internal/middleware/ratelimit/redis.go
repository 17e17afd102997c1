package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisLimiter shares fixed-window counters between server instances. It
// fails open: when Redis is unreachable requests are allowed.
type RedisLimiter struct {
	client            *redis.Client
	logger            *slog.Logger
	prefix            string
	timeout           time.Duration
	requestsPerMinute int
}

// NewRedisLimiter connects to Redis and verifies the connection.
func NewRedisLimiter(addr, password string, db, requestsPerMinute int, logger *slog.Logger) (*RedisLimiter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisLimiter{
		client:            client,
		logger:            logger,
		prefix:            "spendlog:ratelimit:",
		timeout:           250 * time.Millisecond,
		requestsPerMinute: requestsPerMinute,
	}, nil
}

func (rl *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logRedisError("incr", err)
		return true
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, time.Minute).Err(); err != nil {
			rl.logRedisError("expire", err)
		}
	}
	return int(counter) <= rl.requestsPerMinute
}

func (rl *RedisLimiter) Close() error {
	if rl.client == nil {
		return nil
	}
	return rl.client.Close()
}

func (rl *RedisLimiter) logRedisError(op string, err error) {
	rl.logger.Error("redis rate limiter error", "op", op, "error", err)
}
