// Package schemafilter applies allow/deny filters to introspected schemas
// before entity metadata is derived from them.
package schemafilter

import (
	"path"
	"slices"
	"strings"

	"gql-automap/internal/introspection"
)

// Config controls allow/deny filters for tables and columns. Patterns use
// path.Match syntax and match case-insensitively. Column maps are keyed by
// table name; "*" applies to every table.
type Config struct {
	AllowTables      []string            `mapstructure:"allow_tables"`
	DenyTables       []string            `mapstructure:"deny_tables"`
	ScanViewsEnabled bool                `mapstructure:"scan_views_enabled"`
	AllowColumns     map[string][]string `mapstructure:"allow_columns"`
	DenyColumns      map[string][]string `mapstructure:"deny_columns"`
}

// Empty reports whether cfg filters nothing beyond skipping views.
func (cfg Config) Empty() bool {
	return len(cfg.AllowTables) == 0 && len(cfg.DenyTables) == 0 &&
		len(cfg.AllowColumns) == 0 && len(cfg.DenyColumns) == 0
}

// Apply filters tables, columns and foreign keys in place. Missing allow lists
// default to allow-all; deny rules always win. A foreign key constraint is
// dropped when any of its columns, local or referenced, is filtered out, and a
// table left without columns is dropped.
func Apply(schema *introspection.Schema, cfg Config) {
	if schema == nil {
		return
	}

	kept := make([]introspection.Table, 0, len(schema.Tables))
	for _, table := range schema.Tables {
		if table.IsView && !cfg.ScanViewsEnabled {
			continue
		}
		if !tableAllowed(table.Name, cfg.AllowTables, cfg.DenyTables) {
			continue
		}
		columns := make([]introspection.Column, 0, len(table.Columns))
		for _, column := range table.Columns {
			if columnAllowed(table.Name, column.Name, cfg.AllowColumns, cfg.DenyColumns) {
				columns = append(columns, column)
			}
		}
		if len(columns) == 0 {
			continue
		}
		table.Columns = columns
		kept = append(kept, table)
	}

	columnsByTable := make(map[string]map[string]bool, len(kept))
	for _, table := range kept {
		cols := make(map[string]bool, len(table.Columns))
		for _, column := range table.Columns {
			cols[column.Name] = true
		}
		columnsByTable[table.Name] = cols
	}
	for i := range kept {
		kept[i].ForeignKeys = filterForeignKeys(kept[i], columnsByTable)
	}
	schema.Tables = kept
}

func tableAllowed(table string, allow, deny []string) bool {
	if matchesAny(table, deny) {
		return false
	}
	if len(allow) == 0 {
		return true
	}
	return matchesAny(table, allow)
}

func columnAllowed(table, column string, allow, deny map[string][]string) bool {
	if matchesAny(column, mergePatterns(deny, table)) {
		return false
	}
	allowPatterns := mergePatterns(allow, table)
	if len(allowPatterns) == 0 {
		return true
	}
	return matchesAny(column, allowPatterns)
}

func mergePatterns(patterns map[string][]string, table string) []string {
	if patterns == nil {
		return nil
	}
	combined := append([]string{}, patterns["*"]...)
	combined = append(combined, patterns[table]...)
	return slices.Compact(combined)
}

func filterForeignKeys(table introspection.Table, columnsByTable map[string]map[string]bool) []introspection.ForeignKey {
	local := columnsByTable[table.Name]
	broken := make(map[string]bool)
	for _, fk := range table.ForeignKeys {
		remote := columnsByTable[fk.ReferencedTable]
		if !local[fk.ColumnName] || remote == nil || !remote[fk.ReferencedColumn] {
			broken[fk.ConstraintName] = true
		}
	}
	filtered := make([]introspection.ForeignKey, 0, len(table.ForeignKeys))
	for _, fk := range table.ForeignKeys {
		if !broken[fk.ConstraintName] {
			filtered = append(filtered, fk)
		}
	}
	return filtered
}

func matchesAny(value string, patterns []string) bool {
	value = strings.ToLower(value)
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		ok, err := path.Match(strings.ToLower(pattern), value)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// Validate returns the first malformed pattern in cfg, if any.
func Validate(cfg Config) (string, error) {
	check := func(patterns []string) (string, error) {
		for _, p := range patterns {
			if _, err := path.Match(p, ""); err != nil {
				return p, err
			}
		}
		return "", nil
	}
	lists := [][]string{cfg.AllowTables, cfg.DenyTables}
	for _, m := range []map[string][]string{cfg.AllowColumns, cfg.DenyColumns} {
		for _, patterns := range m {
			lists = append(lists, patterns)
		}
	}
	for _, patterns := range lists {
		if p, err := check(patterns); err != nil {
			return p, err
		}
	}
	return "", nil
}
