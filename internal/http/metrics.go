package http

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const httpInstrumentationName = "github.com/fyrsmithlabs/docweaver/internal/http"

// httpMetrics holds request-level metrics.
type httpMetrics struct {
	meter          metric.Meter
	requestsTotal  metric.Int64Counter
	requestDur     metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter
}

func newHTTPMetrics() *httpMetrics {
	m := &httpMetrics{meter: otel.Meter(httpInstrumentationName)}

	// Instrument creation errors leave the field nil; the middleware
	// tolerates that so metrics never block request handling.
	m.requestsTotal, _ = m.meter.Int64Counter(
		"docweaver.http.requests_total",
		metric.WithDescription("Total HTTP requests labeled by method, path, and status code"),
		metric.WithUnit("{request}"),
	)
	m.requestDur, _ = m.meter.Float64Histogram(
		"docweaver.http.request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds, labeled by method, path, and status"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.025, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	m.activeRequests, _ = m.meter.Int64UpDownCounter(
		"docweaver.http.active_requests",
		metric.WithDescription("Number of currently active HTTP requests"),
		metric.WithUnit("{request}"),
	)

	return m
}

func (m *httpMetrics) middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if m.activeRequests != nil {
				m.activeRequests.Add(ctx, 1)
				defer m.activeRequests.Add(ctx, -1)
			}

			start := time.Now()
			err := next(c)

			attrs := metric.WithAttributes(
				attribute.String("method", c.Request().Method),
				attribute.String("path", c.Path()),
				attribute.Int("status", c.Response().Status),
			)
			if m.requestsTotal != nil {
				m.requestsTotal.Add(ctx, 1, attrs)
			}
			if m.requestDur != nil {
				m.requestDur.Record(ctx, time.Since(start).Seconds(), attrs)
			}

			return err
		}
	}
}
