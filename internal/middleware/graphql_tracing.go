package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"gql-automap/internal/gqlrequest"
	"gql-automap/internal/logging"
	"gql-automap/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// GraphQLTracingMiddleware instruments GraphQL execution with an inner span
// tagged with the request analysis and the serving schema's fingerprint.
func GraphQLTracingMiddleware(schemaFingerprint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			analysis := gqlrequest.AnalysisFromContext(r.Context())
			if analysis == nil || strings.TrimSpace(analysis.Envelope.Query) == "" {
				next.ServeHTTP(w, r)
				return
			}

			tracer := otel.Tracer("gql-automap/graphql")
			ctx, span := tracer.Start(r.Context(), "graphql.execute")
			defer span.End()
			if spanCtx := span.SpanContext(); spanCtx.IsValid() {
				reqLogger := logging.FromContext(ctx).WithFields(
					slog.String("trace_id", spanCtx.TraceID().String()),
					slog.String("span_id", spanCtx.SpanID().String()),
				)
				ctx = logging.WithLogger(ctx, reqLogger)
			}

			if span.IsRecording() {
				span.SetAttributes(observability.GraphQLSpanAttributes(analysis, schemaFingerprint)...)
				if analysis.Err != nil {
					span.SetStatus(codes.Error, analysis.Err.Error())
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
