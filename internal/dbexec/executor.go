// Package dbexec provides the query execution abstraction used by SQL backed
// data contexts.
package dbexec

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// Rows abstracts sql.Rows so executors can wrap cleanup behavior.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close() error
}

// QueryExecutor runs read queries.
type QueryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error)
}

// StandardExecutor executes queries directly against a database handle.
type StandardExecutor struct {
	db *sql.DB
}

// NewStandardExecutor creates an executor that runs queries directly against the database.
func NewStandardExecutor(db *sql.DB) *StandardExecutor {
	return &StandardExecutor{db: db}
}

func (e *StandardExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	if e.db == nil {
		return nil, sql.ErrConnDone
	}
	return e.db.QueryContext(ctx, query, args...)
}

// LoggingExecutor logs every statement at debug level with its duration.
type LoggingExecutor struct {
	next   QueryExecutor
	logger *slog.Logger
}

// NewLoggingExecutor wraps next. A nil logger uses slog.Default().
func NewLoggingExecutor(next QueryExecutor, logger *slog.Logger) *LoggingExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingExecutor{next: next, logger: logger}
}

func (e *LoggingExecutor) QueryContext(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	start := time.Now()
	rows, err := e.next.QueryContext(ctx, query, args...)
	attrs := []slog.Attr{
		slog.String("sql", query),
		slog.Int("args", len(args)),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		e.logger.LogAttrs(ctx, slog.LevelWarn, "query failed", attrs...)
		return nil, err
	}
	e.logger.LogAttrs(ctx, slog.LevelDebug, "query executed", attrs...)
	return rows, nil
}
