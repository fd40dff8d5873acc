// Package fieldservice registers generated fields with standard list pagination
// and Relay connection semantics.
package fieldservice

import (
	"fmt"
	"sync"

	"github.com/graphql-go/graphql"

	"gql-automap/internal/propertypath"
	"gql-automap/internal/scalars"
)

// Service registers fields on generated object types.
type Service interface {
	// AddQueryField registers a root list field returning a sequence of element.
	AddQueryField(owner *FieldSet, name string, element graphql.Output, resolve graphql.FieldResolveFn) (*graphql.Field, error)
	// AddQueryConnectionField registers a root Relay connection over element.
	AddQueryConnectionField(owner *FieldSet, name string, element *graphql.Object, resolve graphql.FieldResolveFn) (*graphql.Field, error)
	// AddNavigationField registers a single-valued navigation.
	AddNavigationField(owner *FieldSet, name string, target graphql.Output, nullable bool, resolve graphql.FieldResolveFn) (*graphql.Field, error)
	// AddNavigationListField registers a collection-valued navigation.
	AddNavigationListField(owner *FieldSet, name string, target graphql.Output, resolve graphql.FieldResolveFn) (*graphql.Field, error)
}

// Options configures the standard service.
type Options struct {
	// DefaultLimit applies when a list or connection omits its size argument.
	// Zero or negative disables the default.
	DefaultLimit int
	// MaxLimit rejects larger limit/first arguments. Zero disables the check.
	MaxLimit int
}

// Standard is the default Service. List fields take limit/offset arguments and
// connection fields take first/after with offset cursors.
type Standard struct {
	scalars *scalars.Set
	opts    Options

	mu              sync.RWMutex
	pageInfoType    *graphql.Object
	edgeCache       map[string]*graphql.Object
	connectionCache map[string]*graphql.Object
}

var _ Service = (*Standard)(nil)

// New creates the standard field service. A nil set uses a private scalar set.
func New(set *scalars.Set, opts Options) *Standard {
	if set == nil {
		set = scalars.NewSet()
	}
	return &Standard{
		scalars:         set,
		opts:            opts,
		edgeCache:       make(map[string]*graphql.Object),
		connectionCache: make(map[string]*graphql.Object),
	}
}

// AddQueryField implements Service.
func (s *Standard) AddQueryField(owner *FieldSet, name string, element graphql.Output, resolve graphql.FieldResolveFn) (*graphql.Field, error) {
	if element == nil {
		return nil, fmt.Errorf("query field %s: element type is required", name)
	}
	field := &graphql.Field{
		Name: name,
		Type: graphql.NewList(element),
		Args: graphql.FieldConfigArgument{
			"limit": &graphql.ArgumentConfig{
				Type:        s.scalars.NonNegativeInt(),
				Description: "Maximum number of items to return",
			},
			"offset": &graphql.ArgumentConfig{
				Type:        s.scalars.NonNegativeInt(),
				Description: "Number of items to skip",
			},
		},
		Resolve: s.listResolver(resolve),
	}
	if err := owner.Add(name, field); err != nil {
		return nil, err
	}
	return field, nil
}

// AddQueryConnectionField implements Service.
func (s *Standard) AddQueryConnectionField(owner *FieldSet, name string, element *graphql.Object, resolve graphql.FieldResolveFn) (*graphql.Field, error) {
	if element == nil {
		return nil, fmt.Errorf("connection field %s: element type is required", name)
	}
	field := &graphql.Field{
		Name: name,
		Type: graphql.NewNonNull(s.connectionType(element)),
		Args: graphql.FieldConfigArgument{
			"first": &graphql.ArgumentConfig{
				Type:        s.scalars.NonNegativeInt(),
				Description: "Number of edges to return",
			},
			"after": &graphql.ArgumentConfig{
				Type:        graphql.String,
				Description: "Return edges after this cursor",
			},
		},
		Resolve: s.connectionResolver(element.Name(), resolve),
	}
	if err := owner.Add(name, field); err != nil {
		return nil, err
	}
	return field, nil
}

// AddNavigationField implements Service.
func (s *Standard) AddNavigationField(owner *FieldSet, name string, target graphql.Output, nullable bool, resolve graphql.FieldResolveFn) (*graphql.Field, error) {
	if target == nil {
		return nil, fmt.Errorf("navigation field %s: target type is required", name)
	}
	var fieldType graphql.Output = target
	if !nullable {
		fieldType = graphql.NewNonNull(target)
	}
	field := &graphql.Field{Name: name, Type: fieldType, Resolve: resolve}
	if err := owner.Add(name, field); err != nil {
		return nil, err
	}
	return field, nil
}

// AddNavigationListField implements Service.
func (s *Standard) AddNavigationListField(owner *FieldSet, name string, target graphql.Output, resolve graphql.FieldResolveFn) (*graphql.Field, error) {
	if target == nil {
		return nil, fmt.Errorf("navigation field %s: target type is required", name)
	}
	field := &graphql.Field{Name: name, Type: graphql.NewList(target), Resolve: resolve}
	if err := owner.Add(name, field); err != nil {
		return nil, err
	}
	return field, nil
}

func (s *Standard) listResolver(resolve graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		value, err := resolve(p)
		if err != nil || value == nil {
			return value, err
		}
		items, err := propertypath.AsCollection(value)
		if err != nil {
			return nil, err
		}

		offset, _ := intArg(p.Args, "offset")
		limit, hasLimit := intArg(p.Args, "limit")
		if !hasLimit {
			limit = s.opts.DefaultLimit
		}
		if err := s.checkLimit("limit", limit); err != nil {
			return nil, err
		}
		return page(items, offset, limit), nil
	}
}

func (s *Standard) checkLimit(arg string, value int) error {
	if s.opts.MaxLimit > 0 && value > s.opts.MaxLimit {
		return fmt.Errorf("%s must not exceed %d", arg, s.opts.MaxLimit)
	}
	return nil
}

// page returns items[offset:offset+limit]; a non-positive limit means no limit.
func page(items []interface{}, offset, limit int) []interface{} {
	if offset >= len(items) {
		return []interface{}{}
	}
	end := len(items)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}

func intArg(args map[string]interface{}, name string) (int, bool) {
	switch v := args[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
