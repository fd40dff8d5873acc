package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gql-automap/internal/gqlrequest"
)

// GraphQLSpanAttributes builds span attributes from a request analysis and the
// fingerprint of the schema serving it. Zero values are omitted.
func GraphQLSpanAttributes(a *gqlrequest.Analysis, schemaFingerprint string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 9)
	if a != nil {
		if a.Envelope.OperationName != "" {
			attrs = append(attrs, attribute.String("graphql.operation.requested_name", a.Envelope.OperationName))
		}
		if a.OperationName != "" {
			attrs = append(attrs,
				attribute.String("graphql.operation.name", a.OperationName),
				attribute.String("graphql.operation.type", a.OperationType),
				attribute.String("graphql.operation.hash", a.Hash),
				attribute.Int("graphql.query.field_count", a.FieldCount),
				attribute.Int("graphql.query.depth", a.Depth),
				attribute.Int("graphql.query.variable_count", a.VariableCount),
			)
		}
		if a.Envelope.Size > 0 {
			attrs = append(attrs, attribute.Int("graphql.document.size_bytes", a.Envelope.Size))
		}
	}
	if schemaFingerprint != "" {
		attrs = append(attrs, attribute.String("schema.fingerprint", schemaFingerprint))
	}
	return attrs
}

// GraphQLLogFields builds structured log fields from a request analysis, plus
// the trace id when ctx carries a valid span.
func GraphQLLogFields(ctx context.Context, a *gqlrequest.Analysis) []interface{} {
	fields := make([]interface{}, 0, 4)
	if a != nil && a.OperationName != "" {
		fields = append(fields,
			slog.String("operation_name", a.OperationName),
			slog.String("operation_type", a.OperationType),
			slog.String("operation_hash", a.Hash),
		)
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields, slog.String("trace_id", spanCtx.TraceID().String()))
	}
	return fields
}
