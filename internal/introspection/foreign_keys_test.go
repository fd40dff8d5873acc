package introspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForeignKeyConstraintsGroupsByConstraintName(t *testing.T) {
	table := Table{
		Name: "membership",
		ForeignKeys: []ForeignKey{
			{ConstraintName: "fk_user", ColumnName: "user_id", ReferencedTable: "users", ReferencedColumn: "id", OrdinalPosition: 2},
			{ConstraintName: "fk_user", ColumnName: "tenant_id", ReferencedTable: "users", ReferencedColumn: "tenant_id", OrdinalPosition: 1},
			{ConstraintName: "fk_group", ColumnName: "group_id", ReferencedTable: "groups", ReferencedColumn: "id", OrdinalPosition: 1},
		},
	}

	got := ForeignKeyConstraints(table)
	assert.Equal(t, []ForeignKeyConstraint{
		{
			ConstraintName:    "fk_group",
			ReferencedTable:   "groups",
			ColumnNames:       []string{"group_id"},
			ReferencedColumns: []string{"id"},
		},
		{
			ConstraintName:    "fk_user",
			ReferencedTable:   "users",
			ColumnNames:       []string{"tenant_id", "user_id"},
			ReferencedColumns: []string{"tenant_id", "id"},
		},
	}, got)
}

func TestForeignKeyConstraintsKeepsUnnamedApart(t *testing.T) {
	table := Table{
		Name: "posts",
		ForeignKeys: []ForeignKey{
			{ColumnName: "author_id", ReferencedTable: "users", ReferencedColumn: "id"},
			{ColumnName: "editor_id", ReferencedTable: "users", ReferencedColumn: "id"},
		},
	}

	got := ForeignKeyConstraints(table)
	if assert.Len(t, got, 2) {
		assert.Equal(t, []string{"author_id"}, got[0].ColumnNames)
		assert.Equal(t, []string{"editor_id"}, got[1].ColumnNames)
	}
	assert.Nil(t, ForeignKeyConstraints(Table{Name: "empty"}))
}
