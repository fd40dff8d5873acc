package autoschema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

// RenderSDL renders the schema as SDL. Output is deterministic: Query first,
// then entity types in creation order, then remaining objects, enums and
// custom scalars sorted by name. Generated fields keep their registration order.
func RenderSDL(r *Result) string {
	ordered := make(map[string][]string, len(r.Nodes)+1)
	ordered["Query"] = r.Query.Names()
	for _, n := range r.Nodes {
		ordered[n.Name] = n.Fields.Names()
	}

	var nodeNames []string
	for _, n := range r.Nodes {
		nodeNames = append(nodeNames, n.Name)
	}

	var objects, enums, scalarNames []string
	typeMap := r.Schema.TypeMap()
	for name, t := range typeMap {
		if strings.HasPrefix(name, "__") || name == "Query" {
			continue
		}
		if _, isNode := ordered[name]; isNode {
			continue
		}
		switch t.(type) {
		case *graphql.Object:
			objects = append(objects, name)
		case *graphql.Enum:
			enums = append(enums, name)
		case *graphql.Scalar:
			if !builtinScalars[name] {
				scalarNames = append(scalarNames, name)
			}
		}
	}
	sort.Strings(objects)
	sort.Strings(enums)
	sort.Strings(scalarNames)

	var defs []string
	defs = append(defs, renderObject(r.Schema.QueryType(), ordered["Query"]))
	for _, name := range nodeNames {
		defs = append(defs, renderObject(typeMap[name].(*graphql.Object), ordered[name]))
	}
	for _, name := range objects {
		defs = append(defs, renderObject(typeMap[name].(*graphql.Object), nil))
	}
	for _, name := range enums {
		defs = append(defs, renderEnum(typeMap[name].(*graphql.Enum)))
	}
	for _, name := range scalarNames {
		defs = append(defs, "scalar "+name)
	}
	return strings.Join(defs, "\n\n") + "\n"
}

// renderObject prints fields in order; fields missing from order (such as the
// placeholder of an empty type) follow, sorted by name.
func renderObject(obj *graphql.Object, order []string) string {
	fields := obj.Fields()
	names := make([]string, 0, len(fields))
	listed := make(map[string]bool, len(order))
	for _, name := range order {
		if _, ok := fields[name]; ok {
			names = append(names, name)
			listed[name] = true
		}
	}
	var rest []string
	for name := range fields {
		if !listed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	var b strings.Builder
	fmt.Fprintf(&b, "type %s {\n", obj.Name())
	for _, name := range names {
		field := fields[name]
		b.WriteString("  ")
		b.WriteString(name)
		if len(field.Args) > 0 {
			args := make([]string, 0, len(field.Args))
			for _, arg := range field.Args {
				args = append(args, arg.Name()+": "+arg.Type.String())
			}
			sort.Strings(args)
			b.WriteString("(" + strings.Join(args, ", ") + ")")
		}
		b.WriteString(": ")
		b.WriteString(field.Type.String())
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func renderEnum(e *graphql.Enum) string {
	values := e.Values()
	names := make([]string, 0, len(values))
	for _, v := range values {
		names = append(names, v.Name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "enum %s {\n", e.Name())
	for _, name := range names {
		b.WriteString("  " + name + "\n")
	}
	b.WriteString("}")
	return b.String()
}

// ValidateSDL parses and validates rendered SDL with gqlparser.
func ValidateSDL(sdl string) (*ast.Schema, error) {
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("invalid SDL: %w", err)
	}
	return schema, nil
}
