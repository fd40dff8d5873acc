package dbexec

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardExecutorWithoutDB(t *testing.T) {
	_, err := NewStandardExecutor(nil).QueryContext(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestLoggingExecutor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	exec := NewLoggingExecutor(NewStandardExecutor(db), logger)

	mock.ExpectQuery("SELECT id FROM parents").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	rows, err := exec.QueryContext(context.Background(), "SELECT id FROM parents WHERE id = ?", 1)
	require.NoError(t, err)
	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, cols)
	require.NoError(t, rows.Close())
	assert.Contains(t, logs.String(), "query executed")
	assert.Contains(t, logs.String(), "args=1")

	boom := errors.New("boom")
	mock.ExpectQuery("SELECT broken").WillReturnError(boom)
	_, err = exec.QueryContext(context.Background(), "SELECT broken")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, logs.String(), "query failed")
	require.NoError(t, mock.ExpectationsWereMet())
}
