// Package autoschema assembles an executable GraphQL schema from entity metadata
// and a data context type. It wires the root query builder, the entity graph
// builder and the field service together and records build telemetry.
package autoschema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gql-automap/internal/datacontext"
	"gql-automap/internal/entitygraph"
	"gql-automap/internal/fieldservice"
	"gql-automap/internal/metadata"
	"gql-automap/internal/naming"
	"gql-automap/internal/observability"
	"gql-automap/internal/rootquery"
	"gql-automap/internal/scalars"
)

// ErrConfiguration is wrapped by every fault caused by the model or context
// description. The host should refuse to start when it sees one.
var ErrConfiguration = entitygraph.ErrConfiguration

// Options configures a schema build.
type Options struct {
	Provider metadata.Provider
	Context  metadata.ContextType
	// Connections adds a "<collection>Connection" field per root collection.
	Connections  bool
	Naming       naming.Config
	DefaultLimit int
	MaxLimit     int
	// Source labels build metrics, e.g. "file" or "database".
	Source  string
	Logger  *slog.Logger
	Metrics *observability.SchemaBuildMetrics
}

// Result is a built schema together with the generated pieces it is made of.
type Result struct {
	Schema     graphql.Schema
	Query      *fieldservice.FieldSet
	RootFields []rootquery.Field
	// Nodes are the generated entity types in creation order.
	Nodes []*entitygraph.Node
	Enums map[string]*graphql.Enum
}

// Node returns the generated node for an entity type.
func (r *Result) Node(entityType string) (*entitygraph.Node, bool) {
	for _, n := range r.Nodes {
		if n.EntityType == entityType {
			return n, true
		}
	}
	return nil, false
}

// Build generates the schema. Construction faults are returned, never deferred
// to query time.
func Build(ctx context.Context, opts Options) (*Result, error) {
	_, span := startSpan(ctx, "autoschema.build",
		attribute.String("context", opts.Context.Name),
		attribute.Int("collections", len(opts.Context.Collections)),
	)
	defer span.End()

	start := time.Now()
	result, err := build(opts)
	duration := time.Since(start)

	if err != nil {
		recordSpanError(span, err)
		opts.Metrics.RecordBuild(ctx, duration, false, opts.Source, 0, 0)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("types", len(result.Nodes)),
		attribute.Int("root_fields", result.Query.Len()),
	)
	opts.Metrics.RecordBuild(ctx, duration, true, opts.Source, len(result.Nodes), result.Query.Len())
	return result, nil
}

func build(opts Options) (*Result, error) {
	if opts.Provider == nil {
		return nil, errors.New("metadata provider is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	set := scalars.NewSet()
	service := fieldservice.New(set, fieldservice.Options{
		DefaultLimit: opts.DefaultLimit,
		MaxLimit:     opts.MaxLimit,
	})
	members := datacontext.Members(opts.Provider, opts.Context)
	graph := entitygraph.New(entitygraph.Config{
		Provider: opts.Provider,
		Members:  members,
		Service:  service,
		Scalars:  set,
		Namer:    naming.New(opts.Naming, logger),
		Registry: naming.NewRegistry(),
		Logger:   logger,
	})

	query := fieldservice.NewFieldSet("Query")
	roots, err := rootquery.New(rootquery.Config{
		Context:     opts.Context,
		Members:     members,
		Service:     service,
		Graph:       graph,
		Connections: opts.Connections,
		Logger:      logger,
	}).Build(query)
	if err != nil {
		return nil, err
	}

	// GraphQL requires at least one query field.
	if query.Len() == 0 {
		if err := query.Add("_empty", &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return "No collections declared on the data context", nil
			},
			Description: "Placeholder field when the data context has no collections",
		}); err != nil {
			return nil, err
		}
	}

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "Query",
			Fields: query.Fields(),
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assemble schema: %w", err)
	}

	result := &Result{
		Schema:     schema,
		Query:      query,
		RootFields: roots,
		Nodes:      graph.Nodes(),
		Enums:      graph.Enums(),
	}
	logger.Info("schema built",
		slog.String("context", opts.Context.Name),
		slog.Int("root_fields", query.Len()),
		slog.Int("types", len(result.Nodes)),
		slog.Int("enums", len(result.Enums)),
	)
	return result, nil
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("gql-automap/autoschema")
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
