package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "supportdesk.resolution"

// ResolutionMetrics tracks identity resolution outcomes and outbox health.
type ResolutionMetrics struct {
	resolvedTotal metric.Int64Counter
	enqueuedTotal metric.Int64Counter
	batchSize     metric.Int64Histogram
}

// NewResolutionMetrics creates resolution metrics on the global meter provider.
func NewResolutionMetrics() (*ResolutionMetrics, error) {
	meter := otel.GetMeterProvider().Meter(meterName)

	resolvedTotal, err := meter.Int64Counter("customer_resolutions_total",
		metric.WithDescription("Identity resolutions by action and source"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolution counter: %w", err)
	}

	enqueuedTotal, err := meter.Int64Counter("customer_sync_enqueued_total",
		metric.WithDescription("Customer sync events appended to the outbox"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create enqueue counter: %w", err)
	}

	batchSize, err := meter.Int64Histogram("customer_import_batch_size",
		metric.WithDescription("Records per import batch"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch size histogram: %w", err)
	}

	return &ResolutionMetrics{
		resolvedTotal: resolvedTotal,
		enqueuedTotal: enqueuedTotal,
		batchSize:     batchSize,
	}, nil
}

// Resolved records one resolution outcome
func (m *ResolutionMetrics) Resolved(ctx context.Context, action, source string) {
	m.resolvedTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("source", source),
		),
	)
}

// Enqueued records one outbox append
func (m *ResolutionMetrics) Enqueued(ctx context.Context, eventType string) {
	m.enqueuedTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event_type", eventType)),
	)
}

// BatchObserved records the size of one import batch
func (m *ResolutionMetrics) BatchObserved(ctx context.Context, size int, dryRun bool) {
	m.batchSize.Record(ctx, int64(size),
		metric.WithAttributes(attribute.Bool("dry_run", dryRun)),
	)
}
