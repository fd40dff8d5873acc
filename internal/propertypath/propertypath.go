// Package propertypath compiles dot-separated member paths into resolver closures.
//
// Every segment is checked against declared members when the path is compiled,
// so a misspelled member fails schema construction instead of the first query.
package propertypath

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/graphql-go/graphql"
)

// ErrNotCollection is returned at resolution time when a collection cast is
// applied to a value that is not a sequence.
var ErrNotCollection = errors.New("value is not a collection")

// Getter reads one member from an owner instance.
type Getter func(ctx context.Context, owner interface{}) (interface{}, error)

// Member describes a readable member of a type.
type Member struct {
	Name string
	// Type is the type identifier of the member value. For collections it is the
	// element type.
	Type       string
	Collection bool
	Get        Getter
}

// Members resolves declared members by owner type.
type Members interface {
	Member(ownerType, name string) (Member, bool)
}

// Cast is the final conversion applied to a path result.
type Cast struct {
	// Type is the expected type identifier; empty accepts any type.
	Type       string
	Collection bool
}

// CollectionOf returns a cast to a sequence of elementType.
func CollectionOf(elementType string) *Cast {
	return &Cast{Type: elementType, Collection: true}
}

// SingleOf returns a cast to a single value of typeName.
func SingleOf(typeName string) *Cast {
	return &Cast{Type: typeName}
}

// MemberError reports a path that cannot be compiled.
type MemberError struct {
	Owner  string
	Member string
	Path   string
	Reason string
}

func (e *MemberError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("property path %q on %s: %s", e.Path, e.Owner, e.Reason)
	}
	return fmt.Sprintf("property path %q: member %q of %s: %s", e.Path, e.Member, e.Owner, e.Reason)
}

// Func is a compiled path.
type Func func(ctx context.Context, root interface{}) (interface{}, error)

// Resolver adapts a path rooted at ParamsType to a graphql-go resolver.
func (f Func) Resolver() graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		return f(p.Context, p)
	}
}

// Compile resolves path against members starting at rootType and returns a
// closure performing the chained reads. A nil intermediate value short-circuits
// to nil. With a collection cast the result is normalized to []any.
func Compile(members Members, rootType, path string, cast *Cast) (Func, error) {
	if path == "" {
		return nil, &MemberError{Owner: rootType, Path: path, Reason: "path is empty"}
	}

	segments := strings.Split(path, ".")
	chain := make([]Member, 0, len(segments))
	owner := rootType
	for i, name := range segments {
		if name == "" {
			return nil, &MemberError{Owner: owner, Path: path, Reason: fmt.Sprintf("segment %d is empty", i+1)}
		}
		if i > 0 && chain[i-1].Collection {
			return nil, &MemberError{Owner: owner, Member: name, Path: path, Reason: "cannot read a member through a collection"}
		}
		member, ok := members.Member(owner, name)
		if !ok || member.Get == nil {
			return nil, &MemberError{Owner: owner, Member: name, Path: path, Reason: "no such member"}
		}
		chain = append(chain, member)
		owner = member.Type
	}

	last := chain[len(chain)-1]
	if cast != nil {
		if cast.Collection != last.Collection || (cast.Type != "" && cast.Type != last.Type) {
			return nil, &MemberError{
				Owner:  rootType,
				Member: last.Name,
				Path:   path,
				Reason: fmt.Sprintf("cannot cast %s to %s", describe(last.Type, last.Collection), describe(cast.Type, cast.Collection)),
			}
		}
	}
	normalize := cast != nil && cast.Collection

	return func(ctx context.Context, root interface{}) (interface{}, error) {
		value := root
		for _, member := range chain {
			if value == nil {
				return nil, nil
			}
			next, err := member.Get(ctx, value)
			if err != nil {
				return nil, err
			}
			value = next
		}
		if normalize && value != nil {
			return AsCollection(value)
		}
		return value, nil
	}, nil
}

// MustCompile is Compile that panics on error.
func MustCompile(members Members, rootType, path string, cast *Cast) Func {
	fn, err := Compile(members, rootType, path, cast)
	if err != nil {
		panic(err)
	}
	return fn
}

func describe(typeName string, collection bool) string {
	if typeName == "" {
		typeName = "any"
	}
	if collection {
		return "[" + typeName + "]"
	}
	return typeName
}

// AsCollection normalizes a sequence value to []any. A nil slice yields nil.
func AsCollection(value interface{}) ([]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		return v, nil
	case []map[string]interface{}:
		out := make([]interface{}, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotCollection, value)
	}
}
