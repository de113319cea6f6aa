package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appevent "github.com/supportdesk/backend/internal/application/event"
	"github.com/supportdesk/backend/internal/application/resolution"
	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
)

// Resolver applies one identity signal against the customer platform.
type Resolver interface {
	ResolveOne(ctx context.Context, sig crm.Signal) (*resolution.Resolution, error)
}

// OutboxWorkerConfig holds configuration for the outbox worker
type OutboxWorkerConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() OutboxWorkerConfig {
	return OutboxWorkerConfig{
		BatchSize:        100,
		PollInterval:     5 * time.Second,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour, // 7 days
		CleanupInterval:  1 * time.Hour,
	}
}

// OutboxWorker drains the outbox in the background and feeds each
// customer.sync payload through the resolver. Delivery is at-least-once;
// the idempotency store suppresses reprocessing after a crash between
// resolve and mark-sent.
type OutboxWorker struct {
	repo        shared.OutboxRepository
	resolver    Resolver
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	config      OutboxWorkerConfig
	logger      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(
	repo shared.OutboxRepository,
	resolver Resolver,
	idempotency shared.IdempotencyStore,
	idemConfig shared.IdempotencyConfig,
	config OutboxWorkerConfig,
	logger *zap.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		repo:        repo,
		resolver:    resolver,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		config:      config,
		logger:      logger,
	}
}

// Start starts the background processing
func (w *OutboxWorker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go w.processLoop(ctx)

	if w.config.CleanupEnabled {
		w.wg.Add(1)
		go w.cleanupLoop(ctx)
	}

	w.logger.Info("outbox worker started",
		zap.Int("batch_size", w.config.BatchSize),
		zap.Duration("poll_interval", w.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the worker
func (w *OutboxWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("outbox worker stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *OutboxWorker) processLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch drains one batch of pending and retryable entries. It is
// exported so callers can force a drain without waiting for the poll tick.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) {
	pending, err := w.repo.FindPending(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.Error("failed to find pending entries", zap.Error(err))
		return
	}

	if len(pending) > 0 {
		w.processEntries(ctx, pending)
	}

	retryable, err := w.repo.FindRetryable(ctx, time.Now(), w.config.BatchSize)
	if err != nil {
		w.logger.Error("failed to find retryable entries", zap.Error(err))
		return
	}

	if len(retryable) > 0 {
		w.processEntries(ctx, retryable)
	}
}

func (w *OutboxWorker) processEntries(ctx context.Context, entries []*shared.OutboxEntry) {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	// Atomically claim entries so concurrent workers never double-process
	claimed, err := w.repo.MarkProcessing(ctx, ids)
	if err != nil {
		w.logger.Error("failed to mark entries as processing", zap.Error(err))
		return
	}

	for _, entry := range claimed {
		w.processEntry(ctx, entry)
	}
}

func (w *OutboxWorker) processEntry(ctx context.Context, entry *shared.OutboxEntry) {
	if w.alreadyProcessed(ctx, entry) {
		entry.MarkSent()
		if err := w.repo.Update(ctx, entry); err != nil {
			w.logger.Error("failed to mark duplicate entry as sent", zap.Error(err))
		}
		return
	}

	if err := w.dispatch(ctx, entry); err != nil {
		w.fail(ctx, entry, err)
		return
	}

	w.rememberProcessed(ctx, entry)

	entry.MarkSent()
	if err := w.repo.Update(ctx, entry); err != nil {
		w.logger.Error("failed to mark entry as sent",
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err),
		)
		return
	}

	w.logger.Debug("outbox entry processed",
		zap.String("entry_id", entry.ID.String()),
		zap.String("event_type", entry.EventType),
	)
}

func (w *OutboxWorker) dispatch(ctx context.Context, entry *shared.OutboxEntry) error {
	switch entry.EventType {
	case shared.EventTypeCustomerSync:
		var payload appevent.SyncPayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w", err)
		}
		res, err := w.resolver.ResolveOne(ctx, payload.Signal)
		if err != nil {
			return err
		}
		w.logger.Debug("customer sync resolved",
			zap.String("entry_id", entry.ID.String()),
			zap.String("action", string(res.Action)),
			zap.Int64("customer_id", res.CustomerID),
		)
		return nil
	default:
		return fmt.Errorf("unknown event type %q", entry.EventType)
	}
}

func (w *OutboxWorker) fail(ctx context.Context, entry *shared.OutboxEntry, cause error) {
	w.logger.Error("failed to process outbox entry",
		zap.String("entry_id", entry.ID.String()),
		zap.String("event_type", entry.EventType),
		zap.Error(cause),
	)
	entry.MarkFailed(cause.Error())
	if entry.IsDead() {
		w.logger.Warn("outbox entry moved to dead letter queue",
			zap.String("entry_id", entry.ID.String()),
			zap.String("event_type", entry.EventType),
			zap.Int("retry_count", entry.RetryCount),
			zap.String("last_error", entry.LastError),
		)
	}
	if err := w.repo.Update(ctx, entry); err != nil {
		w.logger.Error("failed to update entry", zap.Error(err))
	}
}

func (w *OutboxWorker) alreadyProcessed(ctx context.Context, entry *shared.OutboxEntry) bool {
	if w.idempotency == nil || !w.idemConfig.Enabled {
		return false
	}
	processed, err := w.idempotency.IsProcessed(ctx, entry.ID.String())
	if err != nil {
		w.logger.Warn("idempotency check failed", zap.Error(err))
		return false
	}
	return processed
}

func (w *OutboxWorker) rememberProcessed(ctx context.Context, entry *shared.OutboxEntry) {
	if w.idempotency == nil || !w.idemConfig.Enabled {
		return
	}
	if _, err := w.idempotency.MarkProcessed(ctx, entry.ID.String(), w.idemConfig.TTL); err != nil {
		w.logger.Warn("failed to record processed entry", zap.Error(err))
	}
}

func (w *OutboxWorker) cleanupLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *OutboxWorker) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-w.config.CleanupRetention)
	deleted, err := w.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Error("failed to cleanup old entries", zap.Error(err))
		return
	}

	if deleted > 0 {
		w.logger.Info("cleaned up old outbox entries",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}
