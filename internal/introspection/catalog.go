package introspection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"gql-automap/internal/metadata"
	"gql-automap/internal/naming"
	"gql-automap/internal/scalartype"
)

// Link maps a navigation onto the columns that join two tables.
// LocalColumns[i] joins to RemoteColumns[i].
type Link struct {
	Navigation    string
	Target        string
	RemoteTable   string
	LocalColumns  []string
	RemoteColumns []string
	Collection    bool
}

// EntityTable ties an entity type to the table it was generated from.
type EntityTable struct {
	EntityType string
	Collection string
	Table      Table
	// Properties maps property names to column names.
	Properties map[string]string
	Links      map[string]Link
}

// Catalog is the metadata generated from an introspected schema together with
// the table mapping needed to read rows for it.
type Catalog struct {
	Schema  *Schema
	Model   *metadata.Model
	Context metadata.ContextType

	byEntity     map[string]*EntityTable
	byCollection map[string]*EntityTable
}

// Entity returns the table mapping of an entity type.
func (c *Catalog) Entity(entityType string) (*EntityTable, bool) {
	et, ok := c.byEntity[entityType]
	return et, ok
}

// ForCollection returns the table mapping behind a root collection.
func (c *Catalog) ForCollection(name string) (*EntityTable, bool) {
	et, ok := c.byCollection[name]
	return et, ok
}

// Load introspects databaseName and builds its catalog. Each prepare func may
// edit the introspected schema, e.g. to filter tables, before the catalog is
// derived.
func Load(ctx context.Context, db Queryer, databaseName string, namer *naming.Namer, logger *slog.Logger, prepare ...func(*Schema)) (*Catalog, error) {
	ctx, span := startSpan(ctx, "introspection.load", attribute.String("db.name", databaseName))
	defer span.End()

	schema, err := IntrospectDatabase(ctx, db, databaseName)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	for _, fn := range prepare {
		fn(schema)
	}
	catalog, err := BuildCatalog(schema, namer, logger)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("entities", len(catalog.byEntity)))
	return catalog, nil
}

// BuildCatalog derives entities, enums, navigations and a data context from an
// introspected schema. Each table becomes an entity named
// "<database>.<SingularPascalTable>" and a root collection. Each foreign key
// produces a single-valued navigation on the referencing table and a collection
// navigation on the referenced one. Columns whose type has no scalar mapping
// are skipped with a warning.
func BuildCatalog(schema *Schema, namer *naming.Namer, logger *slog.Logger) (*Catalog, error) {
	if namer == nil {
		namer = naming.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Catalog{
		Schema:       schema,
		byEntity:     make(map[string]*EntityTable, len(schema.Tables)),
		byCollection: make(map[string]*EntityTable, len(schema.Tables)),
	}
	entities := make(map[string]*metadata.Entity, len(schema.Tables))
	byTable := make(map[string]*EntityTable, len(schema.Tables))
	ctxType := metadata.ContextType{
		Name: schema.Name + "." + namer.TypeName(schema.Name) + "Context",
	}

	for _, table := range schema.Tables {
		typeName := schema.Name + "." + namer.TypeName(namer.Singularize(table.Name))
		et := &EntityTable{
			EntityType: typeName,
			Collection: namer.FieldName(namer.Pluralize(namer.Singularize(table.Name))),
			Table:      table,
			Properties: make(map[string]string, len(table.Columns)),
			Links:      make(map[string]Link),
		}
		entity := &metadata.Entity{Type: typeName}
		for _, col := range table.Columns {
			prop, ok := columnProperty(schema.Name, entity, col, namer)
			if !ok {
				logger.Warn("skipping column with unmapped type",
					slog.String("table", table.Name),
					slog.String("column", col.Name),
					slog.String("type", col.ColumnType),
				)
				continue
			}
			entity.Properties = append(entity.Properties, prop)
			et.Properties[prop.Name] = col.Name
		}

		if _, dup := c.byCollection[et.Collection]; dup {
			return nil, fmt.Errorf("%w: tables map to the same collection %s", metadata.ErrInvalidModel, et.Collection)
		}
		entities[typeName] = entity
		byTable[table.Name] = et
		c.byEntity[typeName] = et
		c.byCollection[et.Collection] = et
		ctxType.Collections = append(ctxType.Collections, metadata.Collection{
			Name:        et.Collection,
			ElementType: typeName,
		})
	}

	for _, table := range schema.Tables {
		if table.IsView {
			continue
		}
		addNavigations(table, byTable, entities, namer, logger)
	}

	ordered := make([]*metadata.Entity, 0, len(schema.Tables))
	for _, table := range schema.Tables {
		ordered = append(ordered, entities[byTable[table.Name].EntityType])
	}
	model, err := metadata.NewModel(ordered...)
	if err != nil {
		return nil, err
	}
	c.Model = model
	c.Context = ctxType
	return c, nil
}

func columnProperty(database string, entity *metadata.Entity, col Column, namer *naming.Namer) (metadata.Property, bool) {
	prop := metadata.Property{Name: col.Name, Type: col.DataType, Nullable: col.IsNullable}
	switch {
	case len(col.EnumValues) > 0:
		enum := &metadata.Enum{
			Name:   database + "." + entity.SimpleName() + namer.TypeName(col.Name),
			Values: col.EnumValues,
		}
		prop.Type = enum.Name
		prop.Enum = enum
		return prop, true
	case strings.EqualFold(col.DataType, "tinyint") && strings.HasPrefix(strings.ToLower(col.ColumnType), "tinyint(1)"):
		prop.Type = "boolean"
	}
	return prop, scalartype.IsScalar(prop.Type)
}

// addNavigations wires the foreign keys of table in both directions.
func addNavigations(table Table, byTable map[string]*EntityTable, entities map[string]*metadata.Entity, namer *naming.Namer, logger *slog.Logger) {
	local := byTable[table.Name]
	constraints := ForeignKeyConstraints(table)

	perTarget := make(map[string]int)
	for _, fk := range constraints {
		perTarget[fk.ReferencedTable]++
	}

	for _, fk := range constraints {
		remote, ok := byTable[fk.ReferencedTable]
		if !ok || remote.Table.IsView {
			logger.Warn("skipping foreign key to unknown table",
				slog.String("table", table.Name),
				slog.String("constraint", fk.ConstraintName),
				slog.String("referenced_table", fk.ReferencedTable),
			)
			continue
		}

		nullable := false
		for _, name := range fk.ColumnNames {
			if col, ok := table.Column(name); ok && col.IsNullable {
				nullable = true
			}
		}

		single := uniqueMember(entities[local.EntityType], referenceName(fk.ColumnNames[0]), "_ref", namer)
		entities[local.EntityType].Navigations = append(entities[local.EntityType].Navigations, metadata.Navigation{
			Name:     single,
			Target:   remote.EntityType,
			Nullable: nullable,
		})
		local.Links[single] = Link{
			Navigation:    single,
			Target:        remote.EntityType,
			RemoteTable:   remote.Table.Name,
			LocalColumns:  fk.ColumnNames,
			RemoteColumns: fk.ReferencedColumns,
		}

		many := namer.Pluralize(namer.Singularize(table.Name))
		if perTarget[fk.ReferencedTable] > 1 {
			many = single + "_" + many
		}
		many = uniqueMember(entities[remote.EntityType], many, "_"+single, namer)
		entities[remote.EntityType].Navigations = append(entities[remote.EntityType].Navigations, metadata.Navigation{
			Name:       many,
			Target:     local.EntityType,
			Collection: true,
		})
		remote.Links[many] = Link{
			Navigation:    many,
			Target:        local.EntityType,
			RemoteTable:   table.Name,
			LocalColumns:  fk.ReferencedColumns,
			RemoteColumns: fk.ColumnNames,
			Collection:    true,
		}
	}
}

// referenceName strips a trailing id from a foreign key column:
// "parent_id" -> "parent", "ownerId" -> "owner".
func referenceName(column string) string {
	lower := strings.ToLower(column)
	switch {
	case len(column) > 3 && strings.HasSuffix(lower, "_id"):
		return column[:len(column)-3]
	case len(column) > 2 && strings.HasSuffix(column, "Id"):
		return column[:len(column)-2]
	}
	return column
}

// uniqueMember appends suffix to name while it clashes with a member of entity
// once converted to a field name.
func uniqueMember(entity *metadata.Entity, name, suffix string, namer *naming.Namer) string {
	taken := make(map[string]bool, len(entity.Properties)+len(entity.Navigations))
	for _, p := range entity.Properties {
		taken[namer.FieldName(p.Name)] = true
	}
	for _, n := range entity.Navigations {
		taken[namer.FieldName(n.Name)] = true
	}
	for taken[namer.FieldName(name)] {
		name += suffix
	}
	return name
}
