package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GraphQLMetrics holds the instruments recorded while serving generated schemas.
type GraphQLMetrics struct {
	requestDuration    metric.Float64Histogram
	requestCounter     metric.Int64Counter
	errorCounter       metric.Int64Counter
	activeRequests     metric.Int64UpDownCounter
	collectionDuration metric.Float64Histogram
	collectionRows     metric.Int64Histogram
	collectionErrors   metric.Int64Counter
}

// InitGraphQLMetrics creates the instruments on the global meter provider.
func InitGraphQLMetrics() (*GraphQLMetrics, error) {
	meter := otel.Meter("gql-automap")
	m := &GraphQLMetrics{}
	var err error

	if m.requestDuration, err = meter.Float64Histogram(
		"graphql.request.duration",
		metric.WithDescription("Duration of GraphQL requests in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}
	if m.requestCounter, err = meter.Int64Counter(
		"graphql.requests.total",
		metric.WithDescription("Total number of GraphQL requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}
	if m.errorCounter, err = meter.Int64Counter(
		"graphql.errors.total",
		metric.WithDescription("Total number of GraphQL requests answered with errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create error counter: %w", err)
	}
	if m.activeRequests, err = meter.Int64UpDownCounter(
		"graphql.requests.active",
		metric.WithDescription("Number of in-flight GraphQL requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create active requests counter: %w", err)
	}
	if m.collectionDuration, err = meter.Float64Histogram(
		"datacontext.collection.duration",
		metric.WithDescription("Time spent reading a root collection from the data context"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create collection duration histogram: %w", err)
	}
	if m.collectionRows, err = meter.Int64Histogram(
		"datacontext.collection.rows",
		metric.WithDescription("Number of instances returned by a root collection"),
	); err != nil {
		return nil, fmt.Errorf("failed to create collection rows histogram: %w", err)
	}
	if m.collectionErrors, err = meter.Int64Counter(
		"datacontext.collection.errors.total",
		metric.WithDescription("Number of failed root collection reads"),
	); err != nil {
		return nil, fmt.Errorf("failed to create collection error counter: %w", err)
	}
	return m, nil
}

// InitMetrics initializes the request metrics and logs that they are ready.
func InitMetrics(logger *slog.Logger) (*GraphQLMetrics, error) {
	metrics, err := InitGraphQLMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GraphQL metrics: %w", err)
	}
	logger.Info("GraphQL metrics initialized")
	return metrics, nil
}

// RecordRequest records one GraphQL request. A nil receiver is a no-op.
func (m *GraphQLMetrics) RecordRequest(ctx context.Context, duration time.Duration, hasErrors bool, operationType string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation_type", operationType),
		attribute.Bool("has_errors", hasErrors),
	)
	m.requestDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.requestCounter.Add(ctx, 1, attrs)
	if hasErrors {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation_type", operationType)))
	}
}

// RecordCollection records one root collection read. rows is ignored when err
// is non-nil.
func (m *GraphQLMetrics) RecordCollection(ctx context.Context, collection string, duration time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("collection", collection))
	m.collectionDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.collectionErrors.Add(ctx, 1, attrs)
		return
	}
	m.collectionRows.Record(ctx, int64(rows), attrs)
}

// IncrementActiveRequests increments the in-flight request counter.
func (m *GraphQLMetrics) IncrementActiveRequests(ctx context.Context) {
	if m != nil {
		m.activeRequests.Add(ctx, 1)
	}
}

// DecrementActiveRequests decrements the in-flight request counter.
func (m *GraphQLMetrics) DecrementActiveRequests(ctx context.Context) {
	if m != nil {
		m.activeRequests.Add(ctx, -1)
	}
}

type graphQLMetricsContextKey struct{}

// ContextWithGraphQLMetrics stores GraphQL metrics in the provided context.
func ContextWithGraphQLMetrics(ctx context.Context, metrics *GraphQLMetrics) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, graphQLMetricsContextKey{}, metrics)
}

// GraphQLMetricsFromContext retrieves GraphQL metrics from the context.
func GraphQLMetricsFromContext(ctx context.Context) *GraphQLMetrics {
	if ctx == nil {
		return nil
	}
	metrics, _ := ctx.Value(graphQLMetricsContextKey{}).(*GraphQLMetrics)
	return metrics
}
