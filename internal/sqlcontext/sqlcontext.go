// Package sqlcontext is a data context backed by a relational database. Root
// collections read whole tables and navigations are loaded per record by
// foreign key columns.
package sqlcontext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gql-automap/internal/datacontext"
	"gql-automap/internal/dbexec"
	"gql-automap/internal/introspection"
	"gql-automap/internal/scalartype"
	"gql-automap/internal/sqlutil"
)

// ErrUnknownMember is returned when a record is asked for a member its entity
// does not declare.
var ErrUnknownMember = errors.New("unknown member")

// Context reads collections and navigations through a query executor.
type Context struct {
	exec    dbexec.QueryExecutor
	catalog *introspection.Catalog
	logger  *slog.Logger
	plans   map[string]*tablePlan
}

// tablePlan is the column list and value conversion for one entity table.
type tablePlan struct {
	table   *introspection.EntityTable
	columns []string
	kinds   map[string]scalartype.Kind
	orderBy []string
}

// New creates a data context over catalog.
func New(exec dbexec.QueryExecutor, catalog *introspection.Catalog, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Context{
		exec:    exec,
		catalog: catalog,
		logger:  logger,
		plans:   make(map[string]*tablePlan, len(catalog.Context.Collections)),
	}
	for _, coll := range catalog.Context.Collections {
		if et, ok := catalog.Entity(coll.ElementType); ok {
			c.plans[et.EntityType] = c.planFor(et)
		}
	}
	return c
}

func (c *Context) planFor(et *introspection.EntityTable) *tablePlan {
	needed := make(map[string]bool, len(et.Properties))
	for _, col := range et.Properties {
		needed[col] = true
	}
	for _, link := range et.Links {
		for _, col := range link.LocalColumns {
			needed[col] = true
		}
	}

	plan := &tablePlan{
		table:   et,
		kinds:   make(map[string]scalartype.Kind, len(needed)),
		orderBy: sqlutil.QuoteIdentifiers(introspection.PrimaryKeyColumns(et.Table)),
	}
	entity, _ := c.catalog.Model.FindEntity(et.EntityType)
	for _, col := range et.Table.Columns {
		if !needed[col.Name] {
			continue
		}
		plan.columns = append(plan.columns, col.Name)
		declared := col.DataType
		if entity != nil {
			if prop, ok := entity.Property(col.Name); ok && !prop.IsEnum() {
				declared = prop.Type
			}
		}
		kind, _ := scalartype.Lookup(declared)
		plan.kinds[col.Name] = kind
	}
	return plan
}

// Name implements datacontext.Context.
func (c *Context) Name() string {
	return c.catalog.Context.Name
}

// Collection implements datacontext.Context. It returns a []interface{} of
// *Record ordered by primary key.
func (c *Context) Collection(ctx context.Context, name string) (interface{}, error) {
	et, ok := c.catalog.ForCollection(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", datacontext.ErrUnknownCollection, name)
	}
	ctx, span := startSpan(ctx, "sqlcontext.collection",
		attribute.String("collection", name),
		attribute.String("db.table", et.Table.Name),
	)
	defer span.End()

	records, err := c.query(ctx, c.plans[et.EntityType], nil)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("collection %s: %w", name, err)
	}
	span.SetAttributes(attribute.Int("rows", len(records)))
	return records, nil
}

func (c *Context) query(ctx context.Context, plan *tablePlan, where sq.Sqlizer) ([]interface{}, error) {
	if plan == nil {
		return nil, errors.New("no table plan")
	}
	builder := sq.Select(sqlutil.QuoteIdentifiers(plan.columns)...).
		From(sqlutil.QuoteIdentifier(plan.table.Table.Name))
	if where != nil {
		builder = builder.Where(where)
	}
	if len(plan.orderBy) > 0 {
		builder = builder.OrderBy(plan.orderBy...)
	}
	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := c.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	return c.scanRecords(rows, plan)
}

func (c *Context) scanRecords(rows dbexec.Rows, plan *tablePlan) ([]interface{}, error) {
	records := []interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(plan.columns))
		valuePtrs := make([]interface{}, len(plan.columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(plan.columns))
		for i, col := range plan.columns {
			row[col] = convertValue(plan.kinds[col], values[i])
		}
		records = append(records, &Record{owner: c, plan: plan, values: row})
	}
	return records, rows.Err()
}

// follow loads the target of a navigation for one record.
func (c *Context) follow(ctx context.Context, r *Record, link introspection.Link) (interface{}, error) {
	ctx, span := startSpan(ctx, "sqlcontext.navigation",
		attribute.String("navigation", link.Navigation),
		attribute.String("db.table", link.RemoteTable),
	)
	defer span.End()

	target, ok := c.catalog.Entity(link.Target)
	if !ok {
		err := fmt.Errorf("navigation %s: no table for %s", link.Navigation, link.Target)
		recordSpanError(span, err)
		return nil, err
	}
	plan, ok := c.plans[target.EntityType]
	if !ok {
		plan = c.planFor(target)
	}

	where := sq.Eq{}
	for i, col := range link.LocalColumns {
		value := r.values[col]
		if value == nil {
			if link.Collection {
				return []interface{}{}, nil
			}
			return nil, nil
		}
		where[sqlutil.QuoteIdentifier(link.RemoteColumns[i])] = value
	}

	records, err := c.query(ctx, plan, where)
	if err != nil {
		recordSpanError(span, err)
		return nil, fmt.Errorf("navigation %s: %w", link.Navigation, err)
	}
	if link.Collection {
		return records, nil
	}
	if len(records) == 0 {
		return nil, nil
	}
	if len(records) > 1 {
		c.logger.Warn("single navigation matched several rows; using the first",
			slog.String("navigation", link.Navigation),
			slog.String("table", link.RemoteTable),
			slog.Int("rows", len(records)),
		)
	}
	return records[0], nil
}

// Record is one row of an entity table.
type Record struct {
	owner  *Context
	plan   *tablePlan
	values map[string]interface{}

	mu     sync.Mutex
	linked map[string]interface{}
}

// EntityType returns the entity type the record belongs to.
func (r *Record) EntityType() string {
	return r.plan.table.EntityType
}

// Value returns a raw column value.
func (r *Record) Value(column string) (interface{}, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Member implements datacontext.Record. Navigation results are cached on the
// record.
func (r *Record) Member(ctx context.Context, name string) (interface{}, error) {
	if col, ok := r.plan.table.Properties[name]; ok {
		return r.values[col], nil
	}
	link, ok := r.plan.table.Links[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, r.plan.table.EntityType, name)
	}

	r.mu.Lock()
	if v, ok := r.linked[name]; ok {
		r.mu.Unlock()
		return v, nil
	}
	r.mu.Unlock()

	v, err := r.owner.follow(ctx, r, link)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.linked == nil {
		r.linked = make(map[string]interface{})
	}
	r.linked[name] = v
	return v, nil
}

// convertValue turns text-protocol bytes into the Go type the column's scalar
// kind serializes from.
func convertValue(kind scalartype.Kind, val interface{}) interface{} {
	b, ok := val.([]byte)
	if !ok {
		return val
	}
	s := string(b)
	switch kind {
	case scalartype.KindInt:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	case scalartype.KindFloat:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case scalartype.KindBoolean:
		return s != "0" && !strings.EqualFold(s, "false") && s != ""
	case scalartype.KindBytes, scalartype.KindJSON:
		return b
	}
	return s
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("gql-automap/sqlcontext")
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

var (
	_ datacontext.Context = (*Context)(nil)
	_ datacontext.Record  = (*Record)(nil)
)
