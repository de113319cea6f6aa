package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/infrastructure/config"
)

// IdempotencyStoreFactory picks the idempotency backend at startup:
// Redis when reachable, in-memory otherwise.
type IdempotencyStoreFactory struct {
	redisConfig   config.RedisConfig
	logger        *zap.Logger
	allowFallback bool
}

// IdempotencyStoreFactoryOption configures the factory.
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the factory logger.
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.logger = logger }
}

// WithInMemoryFallback controls whether an unreachable Redis degrades
// to the in-memory store (the default) or fails startup. Multi-instance
// deployments should disable the fallback: in-memory marks are not
// shared, so a second worker can double-process.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) { f.allowFallback = allow }
}

// NewIdempotencyStoreFactory builds a factory for the given Redis
// settings.
func NewIdempotencyStoreFactory(cfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redisConfig:   cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore connects the configured backend.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	store, err := NewRedisIdempotencyStore(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("idempotency store backed by redis",
			zap.String("host", f.redisConfig.Host),
		)
		return store, nil
	}

	if !f.allowFallback {
		return nil, fmt.Errorf("redis required for idempotency: %w", err)
	}

	f.logger.Warn("redis unreachable, idempotency falls back to in-memory store",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(), nil
}
