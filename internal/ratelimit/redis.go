package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedis(cfg RedisConfig, limit int, window time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	return &Redis{
		rdb:    rdb,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Allow runs INCR + first-hit EXPIRE; the count resets when the key
// expires, which gives a fixed window shared across processes.
func (r *Redis) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	full := r.prefix + key

	count, err := r.rdb.Incr(ctx, full).Result()
	if err != nil {
		return false, 0, err
	}

	if count == 1 {
		if err := r.rdb.Expire(ctx, full, r.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if int(count) > r.limit {
		ttl, err := r.rdb.TTL(ctx, full).Result()
		if err != nil || ttl < 0 {
			ttl = r.window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}
