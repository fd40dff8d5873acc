package introspection

// PrimaryKeyColumns returns the primary key column names in column order.
// Returns nil for views and tables without a primary key.
func PrimaryKeyColumns(table Table) []string {
	var names []string
	for _, col := range table.Columns {
		if col.IsPrimaryKey {
			names = append(names, col.Name)
		}
	}
	return names
}
