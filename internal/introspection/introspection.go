// Package introspection discovers tables, columns and foreign keys from a MySQL
// compatible information_schema and turns them into entity metadata and a data
// context description.
package introspection

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Column represents a database column.
type Column struct {
	Name         string
	DataType     string
	ColumnType   string
	IsNullable   bool
	IsPrimaryKey bool
	EnumValues   []string
	Comment      string
}

// ForeignKey is one column of a foreign key constraint.
type ForeignKey struct {
	ColumnName       string // e.g., "parent_id"
	ReferencedTable  string // e.g., "parents"
	ReferencedColumn string // e.g., "id"
	ConstraintName   string // e.g., "children_ibfk_1"
	OrdinalPosition  int
}

// Table represents a database table or view.
type Table struct {
	Name        string
	IsView      bool
	Comment     string
	Columns     []Column
	ForeignKeys []ForeignKey
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// Schema represents an introspected database.
type Schema struct {
	Name   string
	Tables []Table
}

// Table looks up a table by name.
func (s *Schema) Table(name string) (*Table, bool) {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i], true
		}
	}
	return nil, false
}

// Queryer provides query access for schema introspection.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// IntrospectDatabase reads tables, columns and key usage for databaseName.
// It issues three queries regardless of the number of tables.
func IntrospectDatabase(ctx context.Context, db Queryer, databaseName string) (*Schema, error) {
	ctx, span := startSpan(ctx, "introspection.build_schema",
		attribute.String("db.name", databaseName),
	)
	defer span.End()

	tables, err := getTables(ctx, db, databaseName)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	index := make(map[string]*Table, len(tables))
	for i := range tables {
		index[tables[i].Name] = &tables[i]
	}

	if err := getColumns(ctx, db, databaseName, index); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if err := getKeyColumns(ctx, db, databaseName, index); err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("failed to get key columns: %w", err)
	}

	span.SetAttributes(attribute.Int("db.tables", len(tables)))
	return &Schema{Name: databaseName, Tables: tables}, nil
}

func getTables(ctx context.Context, db Queryer, databaseName string) ([]Table, error) {
	query, args, err := sq.Select("TABLE_NAME", "TABLE_TYPE", "TABLE_COMMENT").
		From("INFORMATION_SCHEMA.TABLES").
		Where(sq.Eq{"TABLE_SCHEMA": databaseName}).
		Where(sq.Eq{"TABLE_TYPE": []string{"BASE TABLE", "VIEW"}}).
		OrderBy("TABLE_NAME").
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var tables []Table
	for rows.Next() {
		var name, tableType string
		var comment sql.NullString
		if err := rows.Scan(&name, &tableType, &comment); err != nil {
			return nil, err
		}
		tables = append(tables, Table{
			Name:    name,
			IsView:  strings.EqualFold(tableType, "VIEW"),
			Comment: strings.TrimSpace(comment.String),
		})
	}
	return tables, rows.Err()
}

func getColumns(ctx context.Context, db Queryer, databaseName string, tables map[string]*Table) error {
	query, args, err := sq.Select(
		"TABLE_NAME",
		"COLUMN_NAME",
		"DATA_TYPE",
		"COLUMN_TYPE",
		"COLUMN_COMMENT",
		"IS_NULLABLE",
	).
		From("INFORMATION_SCHEMA.COLUMNS").
		Where(sq.Eq{"TABLE_SCHEMA": databaseName}).
		OrderBy("TABLE_NAME", "ORDINAL_POSITION").
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var tableName, isNullable string
		var col Column
		var comment sql.NullString
		if err := rows.Scan(&tableName, &col.Name, &col.DataType, &col.ColumnType, &comment, &isNullable); err != nil {
			return err
		}
		table, ok := tables[tableName]
		if !ok {
			continue
		}
		col.Comment = strings.TrimSpace(comment.String)
		col.IsNullable = strings.EqualFold(isNullable, "YES")
		if strings.EqualFold(col.DataType, "enum") {
			values, err := parseEnumValues(col.ColumnType)
			if err != nil {
				slog.Default().Warn("failed to parse enum values",
					slog.String("table", tableName),
					slog.String("column", col.Name),
					slog.String("type", col.ColumnType),
					slog.String("error", err.Error()),
				)
			} else {
				col.EnumValues = values
			}
		}
		table.Columns = append(table.Columns, col)
	}
	return rows.Err()
}

// getKeyColumns loads primary key membership and foreign keys in one pass over
// KEY_COLUMN_USAGE.
func getKeyColumns(ctx context.Context, db Queryer, databaseName string, tables map[string]*Table) error {
	query, args, err := sq.Select(
		"TABLE_NAME",
		"COLUMN_NAME",
		"CONSTRAINT_NAME",
		"REFERENCED_TABLE_NAME",
		"REFERENCED_COLUMN_NAME",
		"ORDINAL_POSITION",
	).
		From("INFORMATION_SCHEMA.KEY_COLUMN_USAGE").
		Where(sq.Eq{"TABLE_SCHEMA": databaseName}).
		Where(sq.Or{
			sq.Eq{"CONSTRAINT_NAME": "PRIMARY"},
			sq.NotEq{"REFERENCED_TABLE_NAME": nil},
		}).
		OrderBy("TABLE_NAME", "CONSTRAINT_NAME", "ORDINAL_POSITION").
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var tableName, columnName, constraintName string
		var refTable, refColumn sql.NullString
		var position int
		if err := rows.Scan(&tableName, &columnName, &constraintName, &refTable, &refColumn, &position); err != nil {
			return err
		}
		table, ok := tables[tableName]
		if !ok || table.IsView {
			continue
		}
		if constraintName == "PRIMARY" {
			for i := range table.Columns {
				if table.Columns[i].Name == columnName {
					table.Columns[i].IsPrimaryKey = true
				}
			}
			continue
		}
		if !refTable.Valid {
			continue
		}
		table.ForeignKeys = append(table.ForeignKeys, ForeignKey{
			ColumnName:       columnName,
			ReferencedTable:  refTable.String,
			ReferencedColumn: refColumn.String,
			ConstraintName:   constraintName,
			OrdinalPosition:  position,
		})
	}
	return rows.Err()
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("gql-automap/introspection")
	ctx, span := tracer.Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
