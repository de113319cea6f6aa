package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/supportdesk/backend/internal/domain/crm"
	"github.com/supportdesk/backend/internal/domain/shared"
	"github.com/supportdesk/backend/internal/infrastructure/telemetry"
)

// SyncPayload is the identity-signal shaped body of a customer.sync outbox
// event, plus the originating ticket where one exists. The customer it maps
// to is resolved lazily by the worker, not at enqueue time.
type SyncPayload struct {
	crm.Signal
	TicketID int64 `json:"ticket_id,omitempty"`
}

// SyncService is the fire-and-forget entry point for customer sync. Callers
// on fast write paths (ticket intake, quote forms) enqueue here and return
// immediately; the outbox worker runs resolution later with bounded retry.
type SyncService struct {
	repo    shared.OutboxRepository
	logger  *zap.Logger
	metrics *telemetry.ResolutionMetrics
}

// NewSyncService creates a new SyncService. Metrics may be nil.
func NewSyncService(repo shared.OutboxRepository, logger *zap.Logger, metrics *telemetry.ResolutionMetrics) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		repo:    repo,
		logger:  logger,
		metrics: metrics,
	}
}

// EnqueueCustomerSync durably appends a customer.sync event and returns.
// Enqueue failure is logged and swallowed: the caller's own write (the
// ticket, the quote) takes priority over synchronously tracking the customer,
// and a lost sync only delays convergence until the next signal.
func (s *SyncService) EnqueueCustomerSync(ctx context.Context, payload SyncPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("failed to marshal customer sync payload",
			zap.Int64("ticket_id", payload.TicketID),
			zap.Error(err),
		)
		return
	}

	entry := shared.NewOutboxEntry(shared.EventTypeCustomerSync, body)
	if err := s.repo.Save(ctx, entry); err != nil {
		s.logger.Warn("failed to enqueue customer sync event",
			zap.String("event_id", entry.ID.String()),
			zap.Int64("ticket_id", payload.TicketID),
			zap.Error(err),
		)
		return
	}

	if s.metrics != nil {
		s.metrics.Enqueued(ctx, shared.EventTypeCustomerSync)
	}
	s.logger.Debug("customer sync event enqueued",
		zap.String("event_id", entry.ID.String()),
		zap.String("source", string(payload.Source)),
	)
}

// OutboxStatsDTO represents outbox statistics
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// OutboxEntryDTO represents an outbox entry data transfer object
type OutboxEntryDTO struct {
	ID          uuid.UUID  `json:"id"`
	EventType   string     `json:"event_type"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	LastError   string     `json:"last_error,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// GetStats returns outbox entry counts by status
func (s *SyncService) GetStats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count outbox entries", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to retrieve outbox statistics")
	}

	stats := &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	stats.Total = stats.Pending + stats.Processing + stats.Sent + stats.Failed + stats.Dead
	return stats, nil
}

// GetEntry returns a single outbox entry, typically used to inspect a
// dead letter before deciding to retry it
func (s *SyncService) GetEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDeadEntry resets a dead letter entry so the worker picks it up again
func (s *SyncService) RetryDeadEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError("INVALID_STATE", err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("failed to reset dead letter entry",
			zap.String("event_id", id.String()),
			zap.Error(err),
		)
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to reset entry for retry")
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:          entry.ID,
		EventType:   entry.EventType,
		Status:      string(entry.Status),
		RetryCount:  entry.RetryCount,
		MaxRetries:  entry.MaxRetries,
		LastError:   entry.LastError,
		NextRetryAt: entry.NextRetryAt,
		ProcessedAt: entry.ProcessedAt,
		CreatedAt:   entry.CreatedAt,
	}
}
