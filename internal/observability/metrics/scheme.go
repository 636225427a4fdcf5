package metrics

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	schemeMeterName = "isolation.scheme"
)

type SchemeMetrics struct {
	requests           metric.Int64Counter
	requestDuration    metric.Float64Histogram
	windowsGenerated   metric.Int64Counter
	validationFailures metric.Int64Counter
}

func NewSchemeMetrics() (*SchemeMetrics, error) {
	meter := otel.Meter(schemeMeterName)

	requests, err := meter.Int64Counter(
		"isolation_scheme_requests_total",
		metric.WithDescription("Total number of API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"isolation_scheme_request_duration_seconds",
		metric.WithDescription("API request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
		),
	)
	if err != nil {
		return nil, err
	}

	windowsGenerated, err := meter.Int64Counter(
		"isolation_scheme_windows_generated_total",
		metric.WithDescription("Total number of isolation windows generated"),
		metric.WithUnit("{window}"),
	)
	if err != nil {
		return nil, err
	}

	validationFailures, err := meter.Int64Counter(
		"isolation_scheme_validation_failures_total",
		metric.WithDescription("Schemes rejected by validation"),
		metric.WithUnit("{scheme}"),
	)
	if err != nil {
		return nil, err
	}

	return &SchemeMetrics{
		requests:           requests,
		requestDuration:    requestDuration,
		windowsGenerated:   windowsGenerated,
		validationFailures: validationFailures,
	}, nil
}

func (m *SchemeMetrics) RecordRequest(ctx context.Context, route string, status int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.requests.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *SchemeMetrics) RecordWindowsGenerated(ctx context.Context, handling string, count int) {
	m.windowsGenerated.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("special_handling", handling),
	))
}

func (m *SchemeMetrics) RecordValidationFailure(ctx context.Context, kind string) {
	m.validationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}
