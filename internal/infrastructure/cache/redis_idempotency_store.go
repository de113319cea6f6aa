package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supportdesk/backend/internal/domain/shared"
)

const (
	defaultKeyPrefix = "supportdesk:idem:"
	connectTimeout   = 5 * time.Second
)

// RedisConfig holds the Redis connection settings for the store.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisIdempotencyStore backs IdempotencyStore with Redis, so worker
// instances on different hosts dedup against the same state.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore connects to Redis and verifies the
// connection with a ping before returning.
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	return NewRedisIdempotencyStoreWithClient(client, ""), nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client, used by
// tests and by callers that share one client across components. An
// empty prefix selects the default.
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed records the entry via SETNX, which makes
// mark-if-absent atomic across instances. Redis expires the key after
// the TTL.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, entryID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+entryID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark entry %s processed: %w", entryID, err)
	}
	return ok, nil
}

// IsProcessed reports whether a mark for the entry is still live.
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, entryID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+entryID).Result()
	if err != nil {
		return false, fmt.Errorf("check entry %s: %w", entryID, err)
	}
	return n > 0, nil
}

// Close releases the Redis client.
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
