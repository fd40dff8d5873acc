package middleware

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"gql-automap/internal/datacontext"
	"gql-automap/internal/observability"
)

// DataContextMiddleware attaches dc to every request so root resolvers can
// read its collections. Collection reads are timed against the GraphQL
// metrics in request context, if any.
func DataContextMiddleware(dc datacontext.Context) func(http.Handler) http.Handler {
	instrumented := &instrumentedContext{Context: dc}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := datacontext.WithContext(r.Context(), instrumented)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type instrumentedContext struct {
	datacontext.Context
}

func (c *instrumentedContext) Collection(ctx context.Context, name string) (interface{}, error) {
	start := time.Now()
	rows, err := c.Context.Collection(ctx, name)
	observability.GraphQLMetricsFromContext(ctx).RecordCollection(ctx, name, time.Since(start), rowCount(rows), err)
	return rows, err
}

func rowCount(v interface{}) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len()
	}
	return 0
}
