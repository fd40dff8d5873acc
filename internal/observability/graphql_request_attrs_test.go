package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"gql-automap/internal/gqlrequest"
)

func TestGraphQLSpanAttributes(t *testing.T) {
	a := gqlrequest.Analyze(gqlrequest.Envelope{
		Query:         "query Q($n: NonNegativeInt) { parents(limit: $n) { id } }",
		OperationName: "Q",
		Size:          57,
	})

	attrs := GraphQLSpanAttributes(a, "fp-1")
	byKey := map[attribute.Key]attribute.Value{}
	for _, kv := range attrs {
		byKey[kv.Key] = kv.Value
	}
	assert.Equal(t, "Q", byKey["graphql.operation.requested_name"].AsString())
	assert.Equal(t, "query", byKey["graphql.operation.type"].AsString())
	assert.Equal(t, int64(2), byKey["graphql.query.field_count"].AsInt64())
	assert.Equal(t, int64(1), byKey["graphql.query.variable_count"].AsInt64())
	assert.Equal(t, int64(57), byKey["graphql.document.size_bytes"].AsInt64())
	assert.Equal(t, "fp-1", byKey["schema.fingerprint"].AsString())
	assert.NotEmpty(t, byKey["graphql.operation.hash"].AsString())

	assert.Empty(t, GraphQLSpanAttributes(nil, ""))
}

func TestGraphQLLogFieldsIncludesTraceID(t *testing.T) {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
		Remote:  true,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	fields := GraphQLLogFields(ctx, gqlrequest.Analyze(gqlrequest.Envelope{Query: "{ parents { id } }"}))
	assert.Len(t, fields, 4)
	assert.Len(t, GraphQLLogFields(context.Background(), nil), 0)
}
