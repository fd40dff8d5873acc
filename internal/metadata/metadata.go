// Package metadata describes the relational data model a schema is generated from:
// entity types with their scalar properties and navigations, and data-context
// types with their root collections.
package metadata

import "strings"

// Enum is a named enumeration referenced by scalar properties.
type Enum struct {
	// Name is the enum type identifier, e.g. "shop.OrderStatus".
	Name   string
	Values []string
}

// SimpleName returns the enum name without its namespace.
func (e *Enum) SimpleName() string {
	return SimpleName(e.Name)
}

// Property is a scalar member of an entity.
type Property struct {
	Name string
	// Type is the declared type, e.g. "int", "string", "time.Time" or "varchar(255)".
	Type     string
	Nullable bool
	// Enum is set when the declared type is an enumeration.
	Enum *Enum
}

// IsEnum reports whether the property is enum-typed.
func (p Property) IsEnum() bool {
	return p.Enum != nil
}

// Navigation is a relationship from one entity to another.
type Navigation struct {
	Name string
	// Target is the type identifier of the related entity.
	Target     string
	Collection bool
	// Nullable only applies to single-valued navigations.
	Nullable bool
}

// Entity describes one entity type.
type Entity struct {
	// Type is the full type identifier, e.g. "shop.ParentEntity".
	Type        string
	Properties  []Property
	Navigations []Navigation
}

// SimpleName returns the entity type name without its namespace.
func (e *Entity) SimpleName() string {
	return SimpleName(e.Type)
}

// Property looks up a scalar property by name.
func (e *Entity) Property(name string) (Property, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Navigation looks up a navigation by name.
func (e *Entity) Navigation(name string) (Navigation, bool) {
	for _, n := range e.Navigations {
		if n.Name == name {
			return n, true
		}
	}
	return Navigation{}, false
}

// Provider supplies entity metadata by type identifier.
type Provider interface {
	// FindEntity returns the metadata for typeName, or false if the type is not
	// part of the model.
	FindEntity(typeName string) (*Entity, bool)
}

// Collection is a root collection declared on a data context.
type Collection struct {
	Name        string
	ElementType string
}

// ContextType describes a data-context type and its root collections.
type ContextType struct {
	Name        string
	Collections []Collection
}

// RootCollections returns the declared root collections in declaration order.
func (c ContextType) RootCollections() []Collection {
	return c.Collections
}

// Collection looks up a root collection by name.
func (c ContextType) Collection(name string) (Collection, bool) {
	for _, coll := range c.Collections {
		if coll.Name == name {
			return coll, true
		}
	}
	return Collection{}, false
}

// SimpleName strips the namespace from a type identifier:
// "shop.ParentEntity" -> "ParentEntity", "a/b.C" -> "C".
func SimpleName(typeName string) string {
	if idx := strings.LastIndexAny(typeName, "./"); idx != -1 {
		return typeName[idx+1:]
	}
	return typeName
}
