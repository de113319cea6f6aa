package shared

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// OutboxStatus is the delivery state of an outbox entry.
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "PENDING"
	OutboxStatusProcessing OutboxStatus = "PROCESSING"
	OutboxStatusSent       OutboxStatus = "SENT"
	OutboxStatusFailed     OutboxStatus = "FAILED"
	OutboxStatusDead       OutboxStatus = "DEAD"
)

const (
	DefaultMaxRetries  = 5
	DefaultBaseBackoff = time.Second
)

// EventTypeCustomerSync is emitted by every write path that must not
// block on identity resolution (ticket intake, quote forms).
const EventTypeCustomerSync = "customer.sync"

// OutboxEntry is an event awaiting reliable delivery. The payload is
// the identity-signal shaped JSON handed to the resolution worker; the
// customer it refers to is resolved at processing time, not here.
type OutboxEntry struct {
	ID          uuid.UUID
	EventType   string
	Payload     []byte
	Status      OutboxStatus
	RetryCount  int
	MaxRetries  int
	LastError   string
	NextRetryAt *time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOutboxEntry builds a pending entry with the default retry budget.
func NewOutboxEntry(eventType string, payload []byte) *OutboxEntry {
	now := time.Now()
	return &OutboxEntry{
		ID:         uuid.New(),
		EventType:  eventType,
		Payload:    payload,
		Status:     OutboxStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanRetry reports whether the entry still has retry budget left.
func (e *OutboxEntry) CanRetry() bool {
	return e.Status == OutboxStatusFailed && e.RetryCount < e.MaxRetries
}

// IsDead reports whether the entry exhausted its retries.
func (e *OutboxEntry) IsDead() bool {
	return e.Status == OutboxStatusDead
}

// MarkProcessing claims the entry. Only pending and failed entries can
// be claimed.
func (e *OutboxEntry) MarkProcessing() error {
	if e.Status != OutboxStatusPending && e.Status != OutboxStatusFailed {
		return errors.New("can only mark pending or failed entries as processing")
	}
	e.Status = OutboxStatusProcessing
	e.UpdatedAt = time.Now()
	return nil
}

// MarkSent records successful delivery.
func (e *OutboxEntry) MarkSent() {
	now := time.Now()
	e.Status = OutboxStatusSent
	e.ProcessedAt = &now
	e.UpdatedAt = now
}

// MarkFailed records a delivery failure. The entry moves to DEAD once
// the retry budget is spent, otherwise it is scheduled for another
// attempt with exponential backoff.
func (e *OutboxEntry) MarkFailed(errMsg string) {
	e.RetryCount++
	e.LastError = errMsg
	e.UpdatedAt = time.Now()

	if e.RetryCount >= e.MaxRetries {
		e.Status = OutboxStatusDead
		return
	}

	e.Status = OutboxStatusFailed
	next := time.Now().Add(backoffFor(e.RetryCount))
	e.NextRetryAt = &next
}

// backoffFor doubles per attempt: 1s, 2s, 4s, 8s, ...
func backoffFor(attempt int) time.Duration {
	return DefaultBaseBackoff * time.Duration(1<<uint(attempt-1))
}

// ResetForRetry puts a dead entry back in the queue with a fresh retry
// budget. Used by the operator endpoint after the underlying fault is
// fixed.
func (e *OutboxEntry) ResetForRetry() error {
	if !e.IsDead() {
		return errors.New("can only retry dead letter entries")
	}
	e.Status = OutboxStatusPending
	e.RetryCount = 0
	e.LastError = ""
	e.NextRetryAt = nil
	e.UpdatedAt = time.Now()
	return nil
}

// OutboxRepository is the persistence port for outbox entries.
type OutboxRepository interface {
	// Save persists one or more entries, usually inside the same
	// transaction as the business write that produced them.
	Save(ctx context.Context, entries ...*OutboxEntry) error
	// FindPending returns pending entries oldest first.
	FindPending(ctx context.Context, limit int) ([]*OutboxEntry, error)
	// FindRetryable returns failed entries whose next retry is due.
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*OutboxEntry, error)
	FindByID(ctx context.Context, id uuid.UUID) (*OutboxEntry, error)
	// MarkProcessing atomically claims entries and returns the claimed
	// set; entries claimed by a concurrent worker are left out.
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*OutboxEntry, error)
	Update(ctx context.Context, entry *OutboxEntry) error
	// DeleteOlderThan prunes sent entries older than the cutoff.
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[OutboxStatus]int64, error)
}
