package kv

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"compliance-backend/internal/shared/storage/db"
)

func TestSQLStorePostgresUpdateLocksRow(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s, err := NewSQLStore(conn, db.DialectPostgres)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_entries WHERE key = $1 FOR UPDATE`)).
		WithArgs("action:1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"status":"pending"}`))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, $3)`)).
		WithArgs("action:1", `{"status":"in_progress"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = s.Update(context.Background(), "action:1", func(current []byte, exists bool) ([]byte, error) {
		require.True(t, exists)
		require.JSONEq(t, `{"status":"pending"}`, string(current))
		return []byte(`{"status":"in_progress"}`), nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorePostgresListEscapesPrefix(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s, err := NewSQLStore(conn, db.DialectPostgres)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value FROM kv_entries WHERE key LIKE $1`)).
		WithArgs(`execution\_metrics:%`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).AddRow("execution_metrics:1", `{}`))

	entries, err := s.List(context.Background(), "execution_metrics:")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreRollsBackOnCallbackError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s, err := NewSQLStore(conn, db.DialectPostgres)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_entries WHERE key = $1 FOR UPDATE`)).
		WithArgs("action:1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	mock.ExpectRollback()

	err = s.Update(context.Background(), "action:1", func(_ []byte, exists bool) ([]byte, error) {
		require.False(t, exists)
		return nil, ErrNotFound
	})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBindRewritesPlaceholdersForSQLite(t *testing.T) {
	s := &SQLStore{dialect: db.DialectSQLite}
	require.Equal(t, "SELECT ? , ? FROM t WHERE x = '$'", s.bind("SELECT $1 , $2 FROM t WHERE x = '$'"))

	pg := &SQLStore{dialect: db.DialectPostgres}
	require.Equal(t, "SELECT $1", pg.bind("SELECT $1"))
}

func TestNewSQLStoreValidates(t *testing.T) {
	_, err := NewSQLStore(nil, db.DialectPostgres)
	require.Error(t, err)
	conn, _, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	_, err = NewSQLStore(conn, "mysql")
	require.Error(t, err)
}
