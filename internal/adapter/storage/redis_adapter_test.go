package storage

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func TestSetIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	key := "test:idempotency:set"
	client.Del(ctx, key)

	ok, err := adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	client.Del(ctx, key)
}

func TestReleaseIdempotency(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	key := "test:idempotency:release"
	client.Del(ctx, key)

	ok, err := adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, adapter.ReleaseIdempotency(ctx, key))

	ok, err = adapter.SetIdempotency(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	client.Del(ctx, key)
}

func TestSetIdempotency_Concurrent(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(client, time.Minute)
	key := "test:idempotency:concurrent"
	client.Del(ctx, key)

	var claimed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := adapter.SetIdempotency(ctx, key)
			if err == nil && ok {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), claimed.Load())
	client.Del(ctx, key)
}

func TestNewRedisAdapter_DefaultTTL(t *testing.T) {
	adapter := NewRedisAdapter(nil, 0)
	assert.Equal(t, 24*time.Hour, adapter.ttl)
}
