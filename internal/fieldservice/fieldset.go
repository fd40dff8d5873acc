package fieldservice

import (
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"
)

// ErrDuplicateField is returned when a field name is registered twice on one owner.
var ErrDuplicateField = errors.New("duplicate field")

// FieldSet is an ordered set of fields for one object type. graphql.Fields is a
// map, so registration order is tracked separately for rendering and tests.
type FieldSet struct {
	owner  string
	names  []string
	fields graphql.Fields
}

// NewFieldSet creates an empty field set for the named owner type.
func NewFieldSet(owner string) *FieldSet {
	return &FieldSet{owner: owner, fields: graphql.Fields{}}
}

// Owner returns the owning type name.
func (s *FieldSet) Owner() string {
	return s.owner
}

// Add registers a field. Names must be unique within the set.
func (s *FieldSet) Add(name string, field *graphql.Field) error {
	if _, exists := s.fields[name]; exists {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, s.owner, name)
	}
	if field.Name == "" {
		field.Name = name
	}
	s.names = append(s.names, name)
	s.fields[name] = field
	return nil
}

// Names returns field names in registration order.
func (s *FieldSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Field returns a registered field.
func (s *FieldSet) Field(name string) (*graphql.Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Len returns the number of fields.
func (s *FieldSet) Len() int {
	return len(s.names)
}

// Fields returns the fields as a graphql.Fields map.
func (s *FieldSet) Fields() graphql.Fields {
	out := make(graphql.Fields, len(s.fields))
	for name, f := range s.fields {
		out[name] = f
	}
	return out
}
