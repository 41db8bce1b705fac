package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type Metrics struct {
	Verifications     metric.Int64Counter
	FilesFulfilled    metric.Int64Counter
	ProcessorDuration metric.Float64Histogram
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	verifications, err := meter.Int64Counter("verifications_total",
		metric.WithDescription("Verification requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	files, err := meter.Int64Counter("files_fulfilled_total",
		metric.WithDescription("Download URLs returned to buyers"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	procTime, err := meter.Float64Histogram("processor_request_duration_seconds",
		metric.WithDescription("Duration of payment processor verification calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Verifications:     verifications,
		FilesFulfilled:    files,
		ProcessorDuration: procTime,
	}, nil
}

// NopMetrics returns instruments that record nothing.
func NopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter("nop"))
	return m
}

// RecordVerification counts one finished verification. reason is empty on success.
func (m *Metrics) RecordVerification(ctx context.Context, outcome, reason string, files int) {
	m.Verifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	))
	if files > 0 {
		m.FilesFulfilled.Add(ctx, int64(files))
	}
}

// ObserveProcessor matches the payment.WithObserver callback.
func (m *Metrics) ObserveProcessor(ctx context.Context, d time.Duration, statusCode int) {
	m.ProcessorDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.Int("http.response.status_code", statusCode),
	))
}
