// Package entitygraph builds GraphQL object types from entity metadata.
//
// Each entity type becomes one Node with a field per scalar property followed by
// a field per navigation, in metadata order. Nodes are memoized per entity type
// and registered before their fields are built, so self-referential and mutually
// referential entities resolve to the same shared node.
package entitygraph

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/graphql-go/graphql"

	"gql-automap/internal/datacontext"
	"gql-automap/internal/fieldservice"
	"gql-automap/internal/metadata"
	"gql-automap/internal/naming"
	"gql-automap/internal/propertypath"
	"gql-automap/internal/scalars"
	"gql-automap/internal/scalartype"
)

// placeholderField keeps objects without metadata valid; GraphQL rejects types
// with no fields.
const placeholderField = "_empty"

type nodeState int

const (
	stateBuilding nodeState = iota
	stateComplete
	stateFailed
)

// Node is the generated object type for one entity type.
type Node struct {
	// EntityType is the full entity type identifier.
	EntityType string
	// Name is the GraphQL type name.
	Name   string
	Object *graphql.Object
	// Fields holds the generated fields in metadata order. The placeholder field
	// of an entity without metadata is not included.
	Fields *fieldservice.FieldSet
	// Mapped is false when the provider had no metadata for the entity type.
	Mapped bool

	state nodeState
	err   error
}

func (n *Node) objectFields() graphql.Fields {
	if n.Fields.Len() == 0 {
		return graphql.Fields{
			placeholderField: &graphql.Field{
				Type:        graphql.Boolean,
				Description: "Placeholder field for a type without mapped members",
				Resolve: func(graphql.ResolveParams) (interface{}, error) {
					return nil, nil
				},
			},
		}
	}
	return n.Fields.Fields()
}

// Config wires a Builder to its collaborators.
type Config struct {
	Provider metadata.Provider
	// Members resolves "Source.<member>" paths; it must understand
	// propertypath.ParamsType roots. Defaults to datacontext.Members.
	Members propertypath.Members
	Service fieldservice.Service
	Scalars *scalars.Set
	Namer   *naming.Namer
	// Registry detects type name collisions; shared with other builders of the
	// same schema.
	Registry *naming.Registry
	Logger   *slog.Logger
}

// Builder creates and memoizes Nodes for entity types.
type Builder struct {
	provider metadata.Provider
	members  propertypath.Members
	service  fieldservice.Service
	scalars  *scalars.Set
	namer    *naming.Namer
	registry *naming.Registry
	logger   *slog.Logger

	mu    sync.Mutex
	nodes map[string]*Node
	order []*Node
	enums map[string]*graphql.Enum
}

// New creates a Builder. Nil optional collaborators get defaults.
func New(cfg Config) *Builder {
	if cfg.Members == nil {
		cfg.Members = datacontext.Members(cfg.Provider, metadata.ContextType{})
	}
	if cfg.Scalars == nil {
		cfg.Scalars = scalars.NewSet()
	}
	if cfg.Service == nil {
		cfg.Service = fieldservice.New(cfg.Scalars, fieldservice.Options{})
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Namer == nil {
		cfg.Namer = naming.New(naming.DefaultConfig(), cfg.Logger)
	}
	if cfg.Registry == nil {
		cfg.Registry = naming.NewRegistry()
	}
	return &Builder{
		provider: cfg.Provider,
		members:  cfg.Members,
		service:  cfg.Service,
		scalars:  cfg.Scalars,
		namer:    cfg.Namer,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		nodes:    make(map[string]*Node),
		enums:    make(map[string]*graphql.Enum),
	}
}

// Node returns the node for entityType, building it and every entity reachable
// through navigations on first use. An entity type unknown to the provider
// yields a node with no fields.
func (b *Builder) Node(entityType string) (*Node, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.node(entityType)
}

// Nodes returns every node built so far in creation order.
func (b *Builder) Nodes() []*Node {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Node, len(b.order))
	copy(out, b.order)
	return out
}

// Enums returns the generated enum types keyed by enum name.
func (b *Builder) Enums() map[string]*graphql.Enum {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]*graphql.Enum, len(b.enums))
	for name, e := range b.enums {
		out[name] = e
	}
	return out
}

func (b *Builder) node(entityType string) (*Node, error) {
	if existing, ok := b.nodes[entityType]; ok {
		if existing.state == stateFailed {
			return nil, existing.err
		}
		return existing, nil
	}

	name := b.namer.TypeName(metadata.SimpleName(entityType))
	if err := b.registry.RegisterType(name, entityType); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	n := &Node{
		EntityType: entityType,
		Name:       name,
		Fields:     fieldservice.NewFieldSet(name),
		state:      stateBuilding,
	}
	n.Object = graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return n.objectFields()
		}),
	})

	// Register before building fields so cycles reuse the in-progress node.
	b.nodes[entityType] = n
	b.order = append(b.order, n)

	entity, ok := b.provider.FindEntity(entityType)
	if !ok {
		n.state = stateComplete
		b.logger.Debug("entity has no metadata, generated empty type",
			slog.String("entity", entityType),
			slog.String("type", name),
		)
		return n, nil
	}
	n.Mapped = true

	if err := b.populate(n, entity); err != nil {
		n.state = stateFailed
		n.err = err
		return nil, err
	}
	n.state = stateComplete

	b.logger.Debug("built graph node",
		slog.String("entity", entityType),
		slog.String("type", name),
		slog.Int("fields", n.Fields.Len()),
	)
	return n, nil
}

func (b *Builder) populate(n *Node, entity *metadata.Entity) error {
	for _, prop := range entity.Properties {
		if err := b.addScalarField(n, entity, prop); err != nil {
			return err
		}
	}
	for _, nav := range entity.Navigations {
		if err := b.addNavigationField(n, entity, nav); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) addScalarField(n *Node, entity *metadata.Entity, prop metadata.Property) error {
	var fieldType graphql.Output
	if prop.IsEnum() {
		enumType, err := b.enumType(prop.Enum)
		if err != nil {
			return err
		}
		fieldType = enumType
	} else {
		kind, ok := scalartype.Lookup(prop.Type)
		if !ok {
			return &UnmappedTypeError{Entity: entity.Type, Property: prop.Name, Type: prop.Type}
		}
		fieldType = b.scalars.Output(kind)
	}
	if !prop.Nullable {
		fieldType = graphql.NewNonNull(fieldType)
	}

	read, err := propertypath.Compile(b.members, propertypath.ParamsType(entity.Type), sourcePath(prop.Name), nil)
	if err != nil {
		return fmt.Errorf("%w: property %s.%s: %w", ErrConfiguration, entity.Type, prop.Name, err)
	}

	fieldName := b.namer.FieldName(prop.Name)
	if err := n.Fields.Add(fieldName, &graphql.Field{Type: fieldType, Resolve: read.Resolver()}); err != nil {
		return fmt.Errorf("%w: property %s.%s: %w", ErrConfiguration, entity.Type, prop.Name, err)
	}
	return nil
}

func (b *Builder) addNavigationField(n *Node, entity *metadata.Entity, nav metadata.Navigation) error {
	if _, ok := b.provider.FindEntity(nav.Target); !ok {
		return configErrorf("navigation %s.%s targets %s, which has no metadata", entity.Type, nav.Name, nav.Target)
	}

	cast := propertypath.SingleOf(nav.Target)
	if nav.Collection {
		cast = propertypath.CollectionOf(nav.Target)
	}
	read, err := propertypath.Compile(b.members, propertypath.ParamsType(entity.Type), sourcePath(nav.Name), cast)
	if err != nil {
		return fmt.Errorf("%w: navigation %s.%s: %w", ErrConfiguration, entity.Type, nav.Name, err)
	}

	target, err := b.node(nav.Target)
	if err != nil {
		return err
	}

	fieldName := b.namer.FieldName(nav.Name)
	if nav.Collection {
		_, err = b.service.AddNavigationListField(n.Fields, fieldName, target.Object, read.Resolver())
	} else {
		_, err = b.service.AddNavigationField(n.Fields, fieldName, target.Object, nav.Nullable, read.Resolver())
	}
	if err != nil {
		return fmt.Errorf("%w: navigation %s.%s: %w", ErrConfiguration, entity.Type, nav.Name, err)
	}
	return nil
}

func sourcePath(member string) string {
	return propertypath.SourceMember + "." + member
}
