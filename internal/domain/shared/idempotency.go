package shared

import (
	"context"
	"time"
)

// DefaultIdempotencyTTL is how long a processed event ID is remembered.
// It only needs to outlive the longest plausible redelivery window of
// the outbox, one day is generous.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore remembers processed event IDs so the at-least-once
// outbox never resolves the same signal twice.
type IdempotencyStore interface {
	// MarkProcessed records the event as processed. It reports true when
	// this call was the first to record it, false when some earlier call
	// already had.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the event was already recorded.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}

// IdempotencyConfig controls dedup behavior in the outbox worker.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig enables dedup with the default retention.
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     DefaultIdempotencyTTL,
		Enabled: true,
	}
}
