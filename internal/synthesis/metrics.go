package synthesis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/fyrsmithlabs/docweaver/internal/synthesis"

// Metrics holds completion-related metrics.
type Metrics struct {
	meter    metric.Meter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewMetrics creates a new Metrics instance for synthesis.
func NewMetrics() *Metrics {
	m := &Metrics{meter: otel.Meter(instrumentationName)}

	// Instrument creation errors leave the field nil; Record* methods
	// tolerate that so metrics never break the pipeline.
	m.duration, _ = m.meter.Float64Histogram(
		"docweaver.synthesis.generation_duration_seconds",
		metric.WithDescription("Duration of completion generation in seconds, labeled by model and prompt"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	m.errors, _ = m.meter.Int64Counter(
		"docweaver.synthesis.errors_total",
		metric.WithDescription("Total completion generation errors by model and prompt"),
		metric.WithUnit("{error}"),
	)

	return m
}

// RecordGeneration records completion generation metrics.
func (m *Metrics) RecordGeneration(ctx context.Context, model, prompt string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("model", model),
		attribute.String("prompt", prompt),
	}

	if m.duration != nil {
		m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil && m.errors != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
