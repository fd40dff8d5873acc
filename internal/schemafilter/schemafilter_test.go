package schemafilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gql-automap/internal/introspection"
)

func tableNames(schema *introspection.Schema) []string {
	names := make([]string, 0, len(schema.Tables))
	for _, t := range schema.Tables {
		names = append(names, t.Name)
	}
	return names
}

func columnNames(t introspection.Table) []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

func TestApply_AllowsAllByDefault(t *testing.T) {
	schema := &introspection.Schema{
		Tables: []introspection.Table{
			{Name: "users", Columns: []introspection.Column{{Name: "id"}}},
			{Name: "orders", Columns: []introspection.Column{{Name: "id"}}},
			{Name: "order_totals", IsView: true, Columns: []introspection.Column{{Name: "total"}}},
		},
	}

	Apply(schema, Config{ScanViewsEnabled: true})
	assert.Equal(t, []string{"users", "orders", "order_totals"}, tableNames(schema))
	assert.True(t, Config{ScanViewsEnabled: true}.Empty())

	Apply(schema, Config{})
	assert.Equal(t, []string{"users", "orders"}, tableNames(schema))
}

func TestApply_TableAndColumnFilters(t *testing.T) {
	schema := &introspection.Schema{
		Tables: []introspection.Table{
			{
				Name: "users",
				Columns: []introspection.Column{
					{Name: "id", IsPrimaryKey: true},
					{Name: "email"},
					{Name: "Password_Hash"},
				},
			},
			{
				Name: "audit_intern",
				Columns: []introspection.Column{
					{Name: "id", IsPrimaryKey: true},
					{Name: "payload"},
				},
			},
			{
				Name:    "secrets",
				Columns: []introspection.Column{{Name: "token"}},
			},
		},
	}

	cfg := Config{
		AllowTables:  []string{"*"},
		DenyTables:   []string{"*_intern"},
		AllowColumns: map[string][]string{"*": {"*"}},
		DenyColumns: map[string][]string{
			"users":   {"password_*"},
			"secrets": {"token"},
		},
	}
	assert.False(t, cfg.Empty())
	Apply(schema, cfg)

	require.Equal(t, []string{"users"}, tableNames(schema), "tables without columns are dropped")
	assert.Equal(t, []string{"id", "email"}, columnNames(schema.Tables[0]))
}

func TestApply_ForeignKeysFollowFilteredColumns(t *testing.T) {
	schema := &introspection.Schema{
		Tables: []introspection.Table{
			{
				Name:    "parents",
				Columns: []introspection.Column{{Name: "id"}, {Name: "region"}},
			},
			{
				Name:    "children",
				Columns: []introspection.Column{{Name: "id"}, {Name: "parent_id"}, {Name: "parent_region"}, {Name: "owner_id"}},
				ForeignKeys: []introspection.ForeignKey{
					{ConstraintName: "fk_parent", ColumnName: "parent_id", ReferencedTable: "parents", ReferencedColumn: "id", OrdinalPosition: 1},
					{ConstraintName: "fk_parent", ColumnName: "parent_region", ReferencedTable: "parents", ReferencedColumn: "region", OrdinalPosition: 2},
					{ConstraintName: "fk_owner", ColumnName: "owner_id", ReferencedTable: "owners", ReferencedColumn: "id", OrdinalPosition: 1},
				},
			},
			{
				Name:    "owners",
				Columns: []introspection.Column{{Name: "id"}},
			},
		},
	}

	Apply(schema, Config{
		DenyTables:  []string{"OWNERS"},
		DenyColumns: map[string][]string{"parents": {"region"}},
	})

	children, ok := schema.Table("children")
	require.True(t, ok)
	assert.Empty(t, children.ForeignKeys, "composite key loses all columns when one is filtered")
	_, ok = schema.Table("owners")
	assert.False(t, ok)
}

func TestApply_NilSchema(t *testing.T) {
	assert.NotPanics(t, func() { Apply(nil, Config{}) })
}

func TestValidate(t *testing.T) {
	_, err := Validate(Config{AllowTables: []string{"app_*"}, DenyColumns: map[string][]string{"*": {"secret?"}}})
	assert.NoError(t, err)

	pattern, err := Validate(Config{DenyColumns: map[string][]string{"users": {"[bad"}}})
	assert.Error(t, err)
	assert.Equal(t, "[bad", pattern)
}
