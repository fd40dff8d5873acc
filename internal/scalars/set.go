package scalars

import (
	"sync"

	"github.com/graphql-go/graphql"

	"gql-automap/internal/scalartype"
)

// Set hands out one scalar instance per kind. A GraphQL schema must not contain
// two distinct types with the same name, so every schema build uses a single Set.
type Set struct {
	mu     sync.Mutex
	custom map[scalartype.Kind]*graphql.Scalar
	nonNeg *graphql.Scalar
}

// NewSet creates an empty scalar set.
func NewSet() *Set {
	return &Set{custom: make(map[scalartype.Kind]*graphql.Scalar)}
}

// Output returns the GraphQL output type for a scalar kind, or nil for KindUnknown.
func (s *Set) Output(kind scalartype.Kind) graphql.Output {
	switch kind {
	case scalartype.KindString:
		return graphql.String
	case scalartype.KindInt:
		return graphql.Int
	case scalartype.KindFloat:
		return graphql.Float
	case scalartype.KindBoolean:
		return graphql.Boolean
	case scalartype.KindID:
		return graphql.ID
	case scalartype.KindUnknown:
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.custom[kind]; ok {
		return cached
	}
	var scalar *graphql.Scalar
	switch kind {
	case scalartype.KindBigInt:
		scalar = BigInt()
	case scalartype.KindDecimal:
		scalar = Decimal()
	case scalartype.KindDateTime:
		scalar = DateTime()
	case scalartype.KindDate:
		scalar = Date()
	case scalartype.KindTime:
		scalar = Time()
	case scalartype.KindJSON:
		scalar = JSON()
	case scalartype.KindUUID:
		scalar = UUID()
	case scalartype.KindBytes:
		scalar = Bytes()
	default:
		return nil
	}
	s.custom[kind] = scalar
	return scalar
}

// NonNegativeInt returns the shared NonNegativeInt scalar used by pagination arguments.
func (s *Set) NonNegativeInt() *graphql.Scalar {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nonNeg == nil {
		s.nonNeg = NonNegativeInt()
	}
	return s.nonNeg
}
