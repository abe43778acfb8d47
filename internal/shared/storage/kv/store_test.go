package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"compliance-backend/internal/shared/storage/db"
	"compliance-backend/internal/shared/storage/object/local"
)

func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			ctx := context.Background()
			conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "kv.db"))
			require.NoError(t, err)
			t.Cleanup(func() { conn.Close() })
			require.NoError(t, db.RunMigrations(ctx, conn, db.DialectSQLite))
			s, err := NewSQLStore(conn, db.DialectSQLite)
			require.NoError(t, err)
			return s
		},
		"snapshot": func(t *testing.T) Store {
			return NewSnapshotStore(local.New(t.TempDir()), "state")
		},
	}
}

func TestStoreContract(t *testing.T) {
	for name, newStore := range backends(t) {
		newStore := newStore
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.Get(ctx, "action:missing")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "action:b", []byte(`{"id":"b"}`)))
			require.NoError(t, s.Put(ctx, "action:a", []byte(`{"id":"a"}`)))
			require.NoError(t, s.Put(ctx, "feedback:a:1", []byte(`{"id":"f1"}`)))
			require.NoError(t, s.Put(ctx, "action:a", []byte(`{"id":"a","v":2}`)))

			got, err := s.Get(ctx, "action:a")
			require.NoError(t, err)
			require.JSONEq(t, `{"id":"a","v":2}`, string(got))

			entries, err := s.List(ctx, "action:")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			require.Equal(t, "action:a", entries[0].Key)
			require.Equal(t, "action:b", entries[1].Key)

			require.NoError(t, s.Delete(ctx, "action:b"))
			require.NoError(t, s.Delete(ctx, "action:b"))
			entries, err = s.List(ctx, "action:")
			require.NoError(t, err)
			require.Len(t, entries, 1)

			feedback, err := s.List(ctx, "feedback:a:")
			require.NoError(t, err)
			require.Len(t, feedback, 1)
		})
	}
}

func TestStoreUpdate(t *testing.T) {
	for name, newStore := range backends(t) {
		newStore := newStore
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			err := s.Update(ctx, "batch:1", func(current []byte, exists bool) ([]byte, error) {
				require.False(t, exists)
				require.Nil(t, current)
				return []byte(`{"n":1}`), nil
			})
			require.NoError(t, err)

			sentinel := errors.New("stop")
			err = s.Update(ctx, "batch:1", func(current []byte, exists bool) ([]byte, error) {
				require.True(t, exists)
				return nil, sentinel
			})
			require.ErrorIs(t, err, sentinel)

			require.NoError(t, s.Update(ctx, "batch:1", func([]byte, bool) ([]byte, error) { return nil, nil }))
			got, err := s.Get(ctx, "batch:1")
			require.NoError(t, err)
			require.JSONEq(t, `{"n":1}`, string(got))
		})
	}
}

func TestMemoryUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "counter:x", []byte("0")))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, "counter:x", func(current []byte, _ bool) ([]byte, error) {
				var n int
				fmt.Sscanf(string(current), "%d", &n)
				return []byte(fmt.Sprintf("%d", n+1)), nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "counter:x")
	require.NoError(t, err)
	require.Equal(t, "50", string(got))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	type doc struct {
		ID string `json:"id"`
	}

	require.NoError(t, PutJSON(ctx, s, "doc:1", doc{ID: "1"}))
	require.NoError(t, PutJSON(ctx, s, "doc:2", doc{ID: "2"}))

	one, err := GetJSON[doc](ctx, s, "doc:1")
	require.NoError(t, err)
	require.Equal(t, "1", one.ID)

	all, err := ListJSON[doc](ctx, s, "doc:")
	require.NoError(t, err)
	require.Equal(t, []doc{{ID: "1"}, {ID: "2"}}, all)

	require.NoError(t, s.Put(ctx, "doc:bad", []byte("{")))
	_, err = GetJSON[doc](ctx, s, "doc:bad")
	require.Error(t, err)
}

func TestCollection(t *testing.T) {
	require.Equal(t, "action", Collection("action:123"))
	require.Equal(t, "feedback", Collection("feedback:a:b"))
	require.Equal(t, "default", Collection("plain"))
	require.Equal(t, "default", Collection(":odd"))
}
