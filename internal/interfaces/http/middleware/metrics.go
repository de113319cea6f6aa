package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const httpMeterName = "supportdesk.http"

// Metrics returns a middleware recording request count, duration and
// in-flight gauge per route. The route label uses the gin route pattern,
// not the raw path, to keep cardinality bounded.
func Metrics() gin.HandlerFunc {
	meter := otel.GetMeterProvider().Meter(httpMeterName)

	requests, _ := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total HTTP requests served"),
	)
	duration, _ := meter.Float64Histogram(
		"http_server_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	active, _ := meter.Int64UpDownCounter(
		"http_server_active_requests",
		metric.WithDescription("In-flight HTTP requests"),
	)

	return func(c *gin.Context) {
		start := time.Now()
		active.Add(c.Request.Context(), 1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)

		ctx := c.Request.Context()
		active.Add(ctx, -1)
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
		))
	}
}
