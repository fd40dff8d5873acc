package propertypath

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphql-go/graphql"
)

// Root members of ParamsType.
const (
	SourceMember  = "Source"
	ContextMember = "Context"
)

const paramsPrefix = "graphql.ResolveParams"

// ParamsType returns the type identifier of resolve params whose Source is an
// instance of sourceType. An empty sourceType is used for root query fields.
func ParamsType(sourceType string) string {
	if sourceType == "" {
		return paramsPrefix
	}
	return paramsPrefix + "[" + sourceType + "]"
}

func paramsSource(typeName string) (string, bool) {
	if typeName == paramsPrefix {
		return "", true
	}
	rest, ok := strings.CutPrefix(typeName, paramsPrefix+"[")
	if !ok || !strings.HasSuffix(rest, "]") {
		return "", false
	}
	return strings.TrimSuffix(rest, "]"), true
}

// Params extends Members with the resolve-params root types. Source reads the
// parent instance; Context reads the request data context through Lookup.
type Params struct {
	Members Members
	// ContextType is the type identifier of the request data context.
	ContextType string
	// Lookup extracts the data context from a request context.
	Lookup func(ctx context.Context) (interface{}, error)
}

// Member implements Members.
func (p Params) Member(ownerType, name string) (Member, bool) {
	source, ok := paramsSource(ownerType)
	if !ok {
		if p.Members == nil {
			return Member{}, false
		}
		return p.Members.Member(ownerType, name)
	}

	switch name {
	case SourceMember:
		return Member{Name: name, Type: source, Get: readSource}, true
	case ContextMember:
		if p.Lookup == nil {
			return Member{}, false
		}
		lookup := p.Lookup
		return Member{
			Name: name,
			Type: p.ContextType,
			Get: func(_ context.Context, root interface{}) (interface{}, error) {
				params, err := asParams(root)
				if err != nil {
					return nil, err
				}
				return lookup(params.Context)
			},
		}, true
	}
	return Member{}, false
}

func readSource(_ context.Context, root interface{}) (interface{}, error) {
	params, err := asParams(root)
	if err != nil {
		return nil, err
	}
	return params.Source, nil
}

func asParams(root interface{}) (graphql.ResolveParams, error) {
	switch p := root.(type) {
	case graphql.ResolveParams:
		return p, nil
	case *graphql.ResolveParams:
		if p != nil {
			return *p, nil
		}
	}
	return graphql.ResolveParams{}, fmt.Errorf("expected graphql.ResolveParams, got %T", root)
}
