package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "paygate:replay:"

// RedisStore is a Store backed by Redis, for deployments running more than
// one instance behind a load balancer. SET NX gives the same atomic
// insert-if-absent the in-memory store gets from its mutex.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed replay store. Consumed references
// expire after retention; zero keeps them forever.
func NewRedisStore(url string, retention time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return &RedisStore{
		client:    redis.NewClient(opt),
		retention: retention,
	}, nil
}

// Reserve implements Store.
func (s *RedisStore) Reserve(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, keyPrefix+key, "pending", pendingTTL).Result()
}

// Commit implements Store.
func (s *RedisStore) Commit(ctx context.Context, key string) error {
	return s.client.Set(ctx, keyPrefix+key, "consumed", s.retention).Err()
}

// Release implements Store. Only the reservation owner calls Release, and
// only before committing, so an unconditional delete cannot drop a consumed
// record.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, keyPrefix+key).Err()
}

// Close closes the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
