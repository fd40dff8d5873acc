// Package datacontext defines the request-scoped data context that root query
// fields read their collections from, and the runtime shape of entity instances.
package datacontext

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoContext is returned when a request carries no data context.
	ErrNoContext = errors.New("no data context in request")
	// ErrUnknownCollection is returned for a collection the context does not hold.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrUnsupportedInstance is returned when a member is read from a value that
	// is neither a Record nor a row map.
	ErrUnsupportedInstance = errors.New("unsupported entity instance")
)

// Context is a data context holding named root collections.
type Context interface {
	Name() string
	// Collection returns the instances of a root collection.
	Collection(ctx context.Context, name string) (interface{}, error)
}

// Record is an entity instance whose members are read by name.
type Record interface {
	Member(ctx context.Context, name string) (interface{}, error)
}

type contextKey struct{}

// WithContext attaches a data context to ctx.
func WithContext(ctx context.Context, dc Context) context.Context {
	return context.WithValue(ctx, contextKey{}, dc)
}

// FromContext returns the data context attached to ctx.
func FromContext(ctx context.Context) (Context, error) {
	if ctx == nil {
		return nil, ErrNoContext
	}
	dc, ok := ctx.Value(contextKey{}).(Context)
	if !ok || dc == nil {
		return nil, ErrNoContext
	}
	return dc, nil
}

// ReadMember reads a named member from an entity instance. Instances are either
// Records or row maps keyed by member name.
func ReadMember(ctx context.Context, owner interface{}, name string) (interface{}, error) {
	switch o := owner.(type) {
	case Record:
		return o.Member(ctx, name)
	case map[string]interface{}:
		return o[name], nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInstance, owner)
	}
}
