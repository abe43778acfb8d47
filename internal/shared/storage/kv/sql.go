package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"compliance-backend/internal/shared/storage/db"
)

// SQLStore persists entries in the kv_entries table. Postgres and SQLite are supported.
type SQLStore struct {
	db      *sql.DB
	dialect string
	now     func() time.Time
}

// NewSQLStore wraps an open database. dialect is db.DialectPostgres or db.DialectSQLite.
func NewSQLStore(database *sql.DB, dialect string) (*SQLStore, error) {
	if database == nil {
		return nil, errors.New("kv: database is required")
	}
	switch dialect {
	case db.DialectPostgres, db.DialectSQLite:
	default:
		return nil, fmt.Errorf("kv: unsupported dialect %q", dialect)
	}
	return &SQLStore{db: database, dialect: dialect, now: time.Now}, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.get(ctx, s.db, key, false)
}

func (s *SQLStore) get(ctx context.Context, q queryer, key string, forUpdate bool) ([]byte, error) {
	query := `SELECT value FROM kv_entries WHERE key = $1`
	if forUpdate && s.dialect == db.DialectPostgres {
		query += ` FOR UPDATE`
	}
	var value string
	if err := q.QueryRowContext(ctx, s.bind(query), key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("kv get %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *SQLStore) Put(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, s.db, key, value)
}

func (s *SQLStore) put(ctx context.Context, q queryer, key string, value []byte) error {
	const query = `INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := q.ExecContext(ctx, s.bind(query), key, string(value), s.now().UTC()); err != nil {
		return fmt.Errorf("kv put %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM kv_entries WHERE key = $1`), key); err != nil {
		return fmt.Errorf("kv delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	query := s.bind(`SELECT key, value FROM kv_entries WHERE key LIKE $1 ESCAPE '\' ORDER BY key`)
	rows, err := s.db.QueryContext(ctx, query, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("kv list %s: %w", prefix, err)
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("kv list scan: %w", err)
		}
		out = append(out, Entry{Key: key, Value: []byte(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("kv list rows: %w", err)
	}
	return out, nil
}

// Update runs fn inside a transaction. On Postgres the row is locked with
// SELECT ... FOR UPDATE; SQLite serializes writers on its single connection.
func (s *SQLStore) Update(ctx context.Context, key string, fn UpdateFunc) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kv begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, getErr := s.get(ctx, tx, key, true)
	exists := true
	if errors.Is(getErr, ErrNotFound) {
		exists = false
	} else if getErr != nil {
		return getErr
	}

	next, err := fn(current, exists)
	if err != nil {
		return err
	}
	if next != nil {
		if err = s.put(ctx, tx, key, next); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("kv commit: %w", err)
	}
	return nil
}

// bind rewrites $N placeholders to ? for SQLite.
func (s *SQLStore) bind(query string) string {
	if s.dialect != db.DialectSQLite {
		return query
	}
	var b strings.Builder
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			j := i + 1
			for j < len(query) && query[j] >= '0' && query[j] <= '9' {
				j++
			}
			if j > i+1 {
				if _, err := strconv.Atoi(query[i+1 : j]); err == nil {
					b.WriteByte('?')
					i = j - 1
					continue
				}
			}
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ Store = (*SQLStore)(nil)
