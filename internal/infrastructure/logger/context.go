package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// contextKey keeps this package's context values from colliding with
// other packages'.
type contextKey string

// RequestIDKey carries the request ID through the request context. The
// RequestID middleware sets it; the access log and gorm traces read it.
const RequestIDKey contextKey = "request_id"

// GetRequestID returns the request ID stored on the context, or an
// empty string when none was set.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithRequestID stores the request ID on the context and returns a
// logger pre-tagged with it.
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return context.WithValue(ctx, RequestIDKey, requestID),
		log.With(zap.String("request_id", requestID))
}

// spanContext returns the valid span context for ctx, or false when no
// recording span is attached.
func spanContext(ctx context.Context) (trace.SpanContext, bool) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	return sc, sc.IsValid()
}

// GetTraceID returns the active trace ID, or an empty string outside a
// span.
func GetTraceID(ctx context.Context) string {
	if sc, ok := spanContext(ctx); ok {
		return sc.TraceID().String()
	}
	return ""
}

// WithTraceContext tags the logger with trace_id and span_id from the
// active span. Outside a span the logger is returned unchanged.
func WithTraceContext(ctx context.Context, log *zap.Logger) *zap.Logger {
	sc, ok := spanContext(ctx)
	if !ok {
		return log
	}
	return log.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}
