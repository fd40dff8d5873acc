// Package rootquery generates one root query field per collection declared on a
// data context type. Each field reads its collection from the data context
// carried by the request.
package rootquery

import (
	"fmt"
	"log/slog"

	"github.com/graphql-go/graphql"

	"gql-automap/internal/entitygraph"
	"gql-automap/internal/fieldservice"
	"gql-automap/internal/metadata"
	"gql-automap/internal/propertypath"
)

// Field is a generated root query field.
type Field struct {
	// Name equals the collection name.
	Name       string
	Collection metadata.Collection
	// Node is the element type of the collection.
	Node       *entitygraph.Node
	Definition *graphql.Field
	// Connection is the "<name>Connection" field, when connections are enabled.
	Connection *graphql.Field
}

// Config wires a Builder to its collaborators.
type Config struct {
	Context metadata.ContextType
	// Members resolves "Context.<collection>" against propertypath.ParamsType("").
	Members propertypath.Members
	Service fieldservice.Service
	Graph   *entitygraph.Builder
	// Connections also registers a Relay connection field per collection.
	Connections bool
	Logger      *slog.Logger
}

// Builder generates root query fields.
type Builder struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a root query builder.
func New(cfg Config) *Builder {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Build registers one field per root collection on query, in declaration order.
// A collection whose element type has no metadata still gets a field over an
// empty type; this is logged rather than treated as an error.
func (b *Builder) Build(query *fieldservice.FieldSet) ([]Field, error) {
	if b.cfg.Members == nil || b.cfg.Service == nil || b.cfg.Graph == nil {
		return nil, fmt.Errorf("root query builder requires members, field service and graph builder")
	}
	ctxType := b.cfg.Context
	if ctxType.Name == "" {
		return nil, fmt.Errorf("%w: data context type has no name", entitygraph.ErrConfiguration)
	}

	seen := make(map[string]struct{}, len(ctxType.Collections))
	fields := make([]Field, 0, len(ctxType.Collections))
	for _, coll := range ctxType.RootCollections() {
		if _, dup := seen[coll.Name]; dup {
			return nil, fmt.Errorf("%w: collection %s is declared twice on %s", entitygraph.ErrConfiguration, coll.Name, ctxType.Name)
		}
		seen[coll.Name] = struct{}{}

		field, err := b.buildField(query, coll)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (b *Builder) buildField(query *fieldservice.FieldSet, coll metadata.Collection) (Field, error) {
	path := propertypath.ContextMember + "." + coll.Name
	read, err := propertypath.Compile(b.cfg.Members, propertypath.ParamsType(""), path, propertypath.CollectionOf(coll.ElementType))
	if err != nil {
		return Field{}, fmt.Errorf("%w: collection %s: %w", entitygraph.ErrConfiguration, coll.Name, err)
	}

	node, err := b.cfg.Graph.Node(coll.ElementType)
	if err != nil {
		return Field{}, fmt.Errorf("collection %s: %w", coll.Name, err)
	}
	if !node.Mapped {
		b.logger.Warn("collection element type has no entity metadata; exposing an empty type",
			slog.String("collection", coll.Name),
			slog.String("element_type", coll.ElementType),
			slog.String("graphql_type", node.Name),
		)
	}

	def, err := b.cfg.Service.AddQueryField(query, coll.Name, node.Object, read.Resolver())
	if err != nil {
		return Field{}, fmt.Errorf("%w: collection %s: %w", entitygraph.ErrConfiguration, coll.Name, err)
	}
	field := Field{Name: coll.Name, Collection: coll, Node: node, Definition: def}

	if b.cfg.Connections {
		name := coll.Name + "Connection"
		conn, err := b.cfg.Service.AddQueryConnectionField(query, name, node.Object, read.Resolver())
		if err != nil {
			return Field{}, fmt.Errorf("%w: collection %s: %w", entitygraph.ErrConfiguration, coll.Name, err)
		}
		field.Connection = conn
	}

	b.logger.Debug("registered root query field",
		slog.String("field", coll.Name),
		slog.String("element_type", node.Name),
		slog.Bool("connection", field.Connection != nil),
	)
	return field, nil
}
