package fieldservice

import (
	"github.com/graphql-go/graphql"

	"gql-automap/internal/cursor"
	"gql-automap/internal/propertypath"
)

func (s *Standard) getPageInfoType() *graphql.Object {
	s.mu.RLock()
	cached := s.pageInfoType
	s.mu.RUnlock()
	if cached != nil {
		return cached
	}

	pageInfo := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"hasPreviousPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"startCursor": &graphql.Field{
				Type: graphql.String,
			},
			"endCursor": &graphql.Field{
				Type: graphql.String,
			},
		},
	})

	s.mu.Lock()
	if s.pageInfoType == nil {
		s.pageInfoType = pageInfo
	}
	cached = s.pageInfoType
	s.mu.Unlock()

	return cached
}

// buildEdgeType builds the Edge type for an element type (cached per element).
func (s *Standard) buildEdgeType(element *graphql.Object) *graphql.Object {
	typeName := element.Name() + "Edge"

	s.mu.RLock()
	if cached, ok := s.edgeCache[typeName]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	edgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: typeName,
		Fields: graphql.Fields{
			"cursor": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
			},
			"node": &graphql.Field{
				Type: element,
			},
		},
	})

	s.mu.Lock()
	if cached, ok := s.edgeCache[typeName]; ok {
		s.mu.Unlock()
		return cached
	}
	s.edgeCache[typeName] = edgeType
	s.mu.Unlock()

	return edgeType
}

// connectionType builds the Connection type for an element type (cached per element).
func (s *Standard) connectionType(element *graphql.Object) *graphql.Object {
	typeName := element.Name() + "Connection"

	s.mu.RLock()
	if cached, ok := s.connectionCache[typeName]; ok {
		s.mu.RUnlock()
		return cached
	}
	s.mu.RUnlock()

	edgeType := s.buildEdgeType(element)
	pageInfo := s.getPageInfoType()

	connType := graphql.NewObject(graphql.ObjectConfig{
		Name: typeName,
		Fields: graphql.Fields{
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edgeType))),
			},
			"nodes": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(element)),
			},
			"pageInfo": &graphql.Field{
				Type: graphql.NewNonNull(pageInfo),
			},
			"totalCount": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
			},
		},
	})

	s.mu.Lock()
	if cached, ok := s.connectionCache[typeName]; ok {
		s.mu.Unlock()
		return cached
	}
	s.connectionCache[typeName] = connType
	s.mu.Unlock()

	return connType
}

func (s *Standard) connectionResolver(typeName string, resolve graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		value, err := resolve(p)
		if err != nil {
			return nil, err
		}
		var items []interface{}
		if value != nil {
			items, err = propertypath.AsCollection(value)
			if err != nil {
				return nil, err
			}
		}

		after, _ := p.Args["after"].(string)
		start, err := cursor.OffsetAfter(typeName, after)
		if err != nil {
			return nil, err
		}
		first, hasFirst := intArg(p.Args, "first")
		if !hasFirst {
			first = s.opts.DefaultLimit
		}
		if err := s.checkLimit("first", first); err != nil {
			return nil, err
		}
		return buildConnection(typeName, items, start, first), nil
	}
}

// buildConnection slices items from start and shapes the connection result.
// A non-positive first returns every remaining item.
func buildConnection(typeName string, items []interface{}, start, first int) map[string]interface{} {
	total := len(items)
	if start > total {
		start = total
	}
	end := total
	if first > 0 && first < end-start {
		end = start + first
	}

	edges := make([]interface{}, 0, end-start)
	nodes := make([]interface{}, 0, end-start)
	for i := start; i < end; i++ {
		edges = append(edges, map[string]interface{}{
			"cursor": cursor.EncodeCursor(typeName, i),
			"node":   items[i],
		})
		nodes = append(nodes, items[i])
	}

	pageInfo := map[string]interface{}{
		"hasNextPage":     end < total,
		"hasPreviousPage": start > 0,
		"startCursor":     nil,
		"endCursor":       nil,
	}
	if end > start {
		pageInfo["startCursor"] = cursor.EncodeCursor(typeName, start)
		pageInfo["endCursor"] = cursor.EncodeCursor(typeName, end-1)
	}

	return map[string]interface{}{
		"edges":      edges,
		"nodes":      nodes,
		"pageInfo":   pageInfo,
		"totalCount": total,
	}
}
