package entitygraph

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"gql-automap/internal/metadata"
)

// enumType returns the GraphQL enum for an enum definition, one per enum name.
// Values are exposed as UPPER_SNAKE names and map back to the stored values.
func (b *Builder) enumType(def *metadata.Enum) (*graphql.Enum, error) {
	if cached, ok := b.enums[def.Name]; ok {
		return cached, nil
	}

	name := b.namer.TypeName(def.SimpleName())
	if err := b.registry.RegisterType(name, "enum:"+def.Name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	values := graphql.EnumValueConfigMap{}
	for _, v := range def.Values {
		valueName := b.namer.EnumValueName(v)
		if _, dup := values[valueName]; dup {
			return nil, configErrorf("enum %s: values collide on %s", def.Name, valueName)
		}
		values[valueName] = &graphql.EnumValueConfig{Value: v}
	}

	enumType := graphql.NewEnum(graphql.EnumConfig{
		Name:   name,
		Values: values,
	})
	b.enums[def.Name] = enumType
	return enumType, nil
}
