package naming

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCollision reports two model members that map to the same GraphQL name.
var ErrCollision = errors.New("naming collision")

// Registry tracks generated type and field names so that two sources mapping
// to the same GraphQL name are reported instead of silently overwriting each other.
type Registry struct {
	mu         sync.Mutex
	seenTypes  map[string]string            // GraphQL type name → source
	seenFields map[string]map[string]string // type name → field name → source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		seenTypes:  make(map[string]string),
		seenFields: make(map[string]map[string]string),
	}
}

// RegisterType claims a GraphQL type name for source.
func (r *Registry) RegisterType(typeName, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return claim(r.seenTypes, typeName, source, "type ")
}

// RegisterField claims a field name within a type for source.
func (r *Registry) RegisterField(typeName, fieldName, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seenFields[typeName] == nil {
		r.seenFields[typeName] = make(map[string]string)
	}
	return claim(r.seenFields[typeName], fieldName, source, "field "+typeName+".")
}

// TypeSource returns the source that claimed a type name.
func (r *Registry) TypeSource(typeName string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	source, ok := r.seenTypes[typeName]
	return source, ok
}

func claim(seen map[string]string, name, source, what string) error {
	existing, exists := seen[name]
	if !exists {
		seen[name] = source
		return nil
	}
	if existing == source {
		return nil
	}
	return fmt.Errorf("%w: %s%s is produced by both %s and %s", ErrCollision, what, name, existing, source)
}
