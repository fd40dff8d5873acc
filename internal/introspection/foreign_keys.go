package introspection

import (
	"fmt"
	"sort"
)

// ForeignKeyConstraint groups the columns of one foreign key in ordinal order.
type ForeignKeyConstraint struct {
	ConstraintName    string
	ReferencedTable   string
	ColumnNames       []string
	ReferencedColumns []string
}

// ForeignKeyConstraints returns the table's constraints sorted by name.
func ForeignKeyConstraints(table Table) []ForeignKeyConstraint {
	if len(table.ForeignKeys) == 0 {
		return nil
	}

	grouped := make(map[string][]ForeignKey)
	for i, fk := range table.ForeignKeys {
		key := fk.ConstraintName
		if key == "" {
			key = fmt.Sprintf("~unnamed_%03d", i)
		}
		grouped[key] = append(grouped[key], fk)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]ForeignKeyConstraint, 0, len(keys))
	for _, key := range keys {
		cols := grouped[key]
		sort.SliceStable(cols, func(i, j int) bool {
			return cols[i].OrdinalPosition < cols[j].OrdinalPosition
		})
		c := ForeignKeyConstraint{
			ConstraintName:  cols[0].ConstraintName,
			ReferencedTable: cols[0].ReferencedTable,
		}
		for _, fk := range cols {
			c.ColumnNames = append(c.ColumnNames, fk.ColumnName)
			c.ReferencedColumns = append(c.ReferencedColumns, fk.ReferencedColumn)
		}
		result = append(result, c)
	}
	return result
}
