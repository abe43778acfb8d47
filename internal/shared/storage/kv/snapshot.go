package kv

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"compliance-backend/internal/shared/storage/object"
	"compliance-backend/internal/shared/util"
)

// SnapshotStore keeps each collection as one JSON document in an object store
// (local disk or S3). Collections are loaded on first use and rewritten in full
// after every mutation. Values must be valid JSON.
type SnapshotStore struct {
	objects object.ObjectStore
	prefix  string

	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
}

// NewSnapshotStore returns a store writing snapshots under prefix in objects.
func NewSnapshotStore(objects object.ObjectStore, prefix string) *SnapshotStore {
	return &SnapshotStore{
		objects:     objects,
		prefix:      strings.Trim(prefix, "/"),
		collections: make(map[string]map[string]json.RawMessage),
	}
}

func (s *SnapshotStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, err := s.load(ctx, Collection(key))
	if err != nil {
		return nil, err
	}
	v, ok := coll[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (s *SnapshotStore) Put(ctx context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("kv snapshot %s: value is not valid JSON", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := Collection(key)
	coll, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	prev, had := coll[key]
	coll[key] = clone(value)
	if err := s.persist(ctx, name, coll); err != nil {
		if had {
			coll[key] = prev
		} else {
			delete(coll, key)
		}
		return err
	}
	return nil
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := Collection(key)
	coll, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	prev, had := coll[key]
	if !had {
		return nil
	}
	delete(coll, key)
	if err := s.persist(ctx, name, coll); err != nil {
		coll[key] = prev
		return err
	}
	return nil
}

func (s *SnapshotStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, err := s.load(ctx, Collection(prefix))
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0)
	for k, v := range coll {
		if strings.HasPrefix(k, prefix) {
			out = append(out, Entry{Key: k, Value: clone(v)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *SnapshotStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := Collection(key)
	coll, err := s.load(ctx, name)
	if err != nil {
		return err
	}
	current, exists := coll[key]
	next, err := fn(clone(current), exists)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	if !json.Valid(next) {
		return fmt.Errorf("kv snapshot %s: value is not valid JSON", key)
	}
	coll[key] = clone(next)
	if err := s.persist(ctx, name, coll); err != nil {
		if exists {
			coll[key] = current
		} else {
			delete(coll, key)
		}
		return err
	}
	return nil
}

func (s *SnapshotStore) objectKey(collection string) (string, error) {
	name, err := util.SanitizeFileName(collection)
	if err != nil {
		return "", fmt.Errorf("kv snapshot collection %q: %w", collection, err)
	}
	if s.prefix == "" {
		return name + ".json", nil
	}
	return s.prefix + "/" + name + ".json", nil
}

// load must be called with s.mu held.
func (s *SnapshotStore) load(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	if coll, ok := s.collections[collection]; ok {
		return coll, nil
	}
	key, err := s.objectKey(collection)
	if err != nil {
		return nil, err
	}
	coll := make(map[string]json.RawMessage)
	rc, err := s.objects.Open(ctx, key)
	if errors.Is(err, object.ErrNotFound) {
		s.collections[collection] = coll
		return coll, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kv snapshot open %s: %w", collection, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("kv snapshot read %s: %w", collection, err)
	}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &coll); err != nil {
			return nil, fmt.Errorf("kv snapshot decode %s: %w", collection, err)
		}
	}
	s.collections[collection] = coll
	return coll, nil
}

func (s *SnapshotStore) persist(ctx context.Context, collection string, coll map[string]json.RawMessage) error {
	key, err := s.objectKey(collection)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("kv snapshot encode %s: %w", collection, err)
	}
	if _, err := s.objects.SaveWithKey(ctx, key, "application/json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("kv snapshot save %s: %w", collection, err)
	}
	return nil
}

var _ Store = (*SnapshotStore)(nil)
