package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultIdempotencyKeyTTL = 24 * time.Hour

type RedisAdapter struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAdapter returns an idempotency store. A non-positive ttl falls back
// to 24h.
func NewRedisAdapter(client *redis.Client, ttl time.Duration) *RedisAdapter {
	if ttl <= 0 {
		ttl = defaultIdempotencyKeyTTL
	}
	return &RedisAdapter{client: client, ttl: ttl}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, r.ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) ReleaseIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
