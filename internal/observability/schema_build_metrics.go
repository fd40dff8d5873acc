package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SchemaBuildMetrics holds custom metrics for schema construction.
type SchemaBuildMetrics struct {
	buildCounter    metric.Int64Counter
	errorCounter    metric.Int64Counter
	durationHist    metric.Float64Histogram
	typeCount       atomic.Int64
	rootFieldCount  atomic.Int64
	lastSuccessUnix atomic.Int64
}

// InitSchemaBuildMetrics initializes schema build metrics.
func InitSchemaBuildMetrics(logger *slog.Logger) (*SchemaBuildMetrics, error) {
	meter := otel.Meter("gql-automap")

	buildCounter, err := meter.Int64Counter(
		"schema.build.total",
		metric.WithDescription("Total number of schema build attempts"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build counter: %w", err)
	}

	errorCounter, err := meter.Int64Counter(
		"schema.build.errors.total",
		metric.WithDescription("Total number of failed schema builds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build error counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"schema.build.duration",
		metric.WithDescription("Duration of schema builds in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build duration histogram: %w", err)
	}

	typeGauge, err := meter.Int64ObservableGauge(
		"schema.types",
		metric.WithDescription("Number of object types generated by the last successful build"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema type gauge: %w", err)
	}

	rootFieldGauge, err := meter.Int64ObservableGauge(
		"schema.root_fields",
		metric.WithDescription("Number of root query fields generated by the last successful build"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema root field gauge: %w", err)
	}

	lastSuccessGauge, err := meter.Int64ObservableGauge(
		"schema.build.last_success_unix",
		metric.WithDescription("Unix timestamp of the last successful schema build"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema build last success gauge: %w", err)
	}

	metrics := &SchemaBuildMetrics{
		buildCounter: buildCounter,
		errorCounter: errorCounter,
		durationHist: durationHist,
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, observer metric.Observer) error {
			if value := metrics.lastSuccessUnix.Load(); value > 0 {
				observer.ObserveInt64(lastSuccessGauge, value)
				observer.ObserveInt64(typeGauge, metrics.typeCount.Load())
				observer.ObserveInt64(rootFieldGauge, metrics.rootFieldCount.Load())
			}
			return nil
		},
		typeGauge, rootFieldGauge, lastSuccessGauge,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register schema build gauge callback: %w", err)
	}

	logger.Info("schema build metrics initialized")
	return metrics, nil
}

// RecordBuild records a schema build attempt. Type and field counts are only
// kept for successful builds.
func (m *SchemaBuildMetrics) RecordBuild(ctx context.Context, duration time.Duration, success bool, source string, types, rootFields int) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("source", source),
		attribute.Bool("success", success),
	}

	m.buildCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
		return
	}

	m.typeCount.Store(int64(types))
	m.rootFieldCount.Store(int64(rootFields))
	m.lastSuccessUnix.Store(time.Now().Unix())
}
