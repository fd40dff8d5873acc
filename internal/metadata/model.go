package metadata

import (
	"errors"
	"fmt"
)

// ErrInvalidModel is wrapped by every model construction failure.
var ErrInvalidModel = errors.New("invalid model")

// Model is an in-memory Provider holding entities in registration order.
type Model struct {
	entities []*Entity
	index    map[string]*Entity
	enums    map[string]*Enum
}

// NewModel builds a model from entity definitions. Entity and member names must
// be unique; enum properties sharing an enum name must share its definition.
func NewModel(entities ...*Entity) (*Model, error) {
	m := &Model{
		index: make(map[string]*Entity, len(entities)),
		enums: make(map[string]*Enum),
	}
	for _, e := range entities {
		if err := m.add(e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustModel is NewModel that panics on error, for tests and static models.
func MustModel(entities ...*Entity) *Model {
	m, err := NewModel(entities...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Model) add(e *Entity) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", ErrInvalidModel)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: entity type is required", ErrInvalidModel)
	}
	if _, exists := m.index[e.Type]; exists {
		return fmt.Errorf("%w: entity %s is declared twice", ErrInvalidModel, e.Type)
	}

	members := make(map[string]string)
	for _, p := range e.Properties {
		if p.Name == "" {
			return fmt.Errorf("%w: entity %s has a property without a name", ErrInvalidModel, e.Type)
		}
		if kind, dup := members[p.Name]; dup {
			return fmt.Errorf("%w: %s.%s is declared as both %s and property", ErrInvalidModel, e.Type, p.Name, kind)
		}
		members[p.Name] = "property"
		if p.Enum != nil {
			if err := m.addEnum(p.Enum); err != nil {
				return err
			}
		}
	}
	for _, n := range e.Navigations {
		if n.Name == "" {
			return fmt.Errorf("%w: entity %s has a navigation without a name", ErrInvalidModel, e.Type)
		}
		if n.Target == "" {
			return fmt.Errorf("%w: navigation %s.%s has no target type", ErrInvalidModel, e.Type, n.Name)
		}
		if kind, dup := members[n.Name]; dup {
			return fmt.Errorf("%w: %s.%s is declared as both %s and navigation", ErrInvalidModel, e.Type, n.Name, kind)
		}
		members[n.Name] = "navigation"
	}

	m.entities = append(m.entities, e)
	m.index[e.Type] = e
	return nil
}

func (m *Model) addEnum(e *Enum) error {
	if e.Name == "" {
		return fmt.Errorf("%w: enum name is required", ErrInvalidModel)
	}
	if len(e.Values) == 0 {
		return fmt.Errorf("%w: enum %s has no values", ErrInvalidModel, e.Name)
	}
	existing, ok := m.enums[e.Name]
	if !ok {
		m.enums[e.Name] = e
		return nil
	}
	if existing == e {
		return nil
	}
	if len(existing.Values) != len(e.Values) {
		return fmt.Errorf("%w: enum %s has conflicting definitions", ErrInvalidModel, e.Name)
	}
	for i := range existing.Values {
		if existing.Values[i] != e.Values[i] {
			return fmt.Errorf("%w: enum %s has conflicting definitions", ErrInvalidModel, e.Name)
		}
	}
	return nil
}

// FindEntity implements Provider.
func (m *Model) FindEntity(typeName string) (*Entity, bool) {
	e, ok := m.index[typeName]
	return e, ok
}

// Entities returns entities in registration order.
func (m *Model) Entities() []*Entity {
	return m.entities
}

// Enum looks up an enum referenced by any registered property.
func (m *Model) Enum(name string) (*Enum, bool) {
	e, ok := m.enums[name]
	return e, ok
}

// DefaultContext derives a context type exposing one root collection per entity,
// named by collectionName.
func (m *Model) DefaultContext(name string, collectionName func(*Entity) string) ContextType {
	ctxType := ContextType{Name: name}
	for _, e := range m.entities {
		ctxType.Collections = append(ctxType.Collections, Collection{
			Name:        collectionName(e),
			ElementType: e.Type,
		})
	}
	return ctxType
}
