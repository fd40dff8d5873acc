package datacontext

import (
	"context"
	"fmt"

	"gql-automap/internal/metadata"
	"gql-automap/internal/propertypath"
)

// Members exposes entity metadata and the context's root collections as
// propertypath members, including the resolve-params roots.
func Members(provider metadata.Provider, ctxType metadata.ContextType) propertypath.Params {
	return propertypath.Params{
		Members:     modelMembers{provider: provider, ctxType: ctxType},
		ContextType: ctxType.Name,
		Lookup: func(ctx context.Context) (interface{}, error) {
			return FromContext(ctx)
		},
	}
}

type modelMembers struct {
	provider metadata.Provider
	ctxType  metadata.ContextType
}

func (m modelMembers) Member(owner, name string) (propertypath.Member, bool) {
	if m.ctxType.Name != "" && owner == m.ctxType.Name {
		coll, ok := m.ctxType.Collection(name)
		if !ok {
			return propertypath.Member{}, false
		}
		return propertypath.Member{
			Name:       name,
			Type:       coll.ElementType,
			Collection: true,
			Get:        collectionGetter(name),
		}, true
	}

	entity, ok := m.provider.FindEntity(owner)
	if !ok {
		return propertypath.Member{}, false
	}
	if prop, ok := entity.Property(name); ok {
		return propertypath.Member{Name: name, Type: prop.Type, Get: memberGetter(name)}, true
	}
	if nav, ok := entity.Navigation(name); ok {
		return propertypath.Member{
			Name:       name,
			Type:       nav.Target,
			Collection: nav.Collection,
			Get:        memberGetter(name),
		}, true
	}
	return propertypath.Member{}, false
}

func memberGetter(name string) propertypath.Getter {
	return func(ctx context.Context, owner interface{}) (interface{}, error) {
		return ReadMember(ctx, owner, name)
	}
}

func collectionGetter(name string) propertypath.Getter {
	return func(ctx context.Context, owner interface{}) (interface{}, error) {
		dc, ok := owner.(Context)
		if !ok {
			return nil, fmt.Errorf("expected data context, got %T", owner)
		}
		return dc.Collection(ctx, name)
	}
}
