package memstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/nlpingest/pkg/nlpingest/store"
)

// Store is an in-memory implementation of store.Sink for tests and dry runs.
type Store struct {
	mu   sync.RWMutex
	docs map[string]store.Record
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{docs: make(map[string]store.Record)}
}

// Close implements store.Sink.
func (s *Store) Close() error { return nil }

// Put inserts or replaces a record, keyed by id.
func (s *Store) Put(ctx context.Context, r store.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.ID == "" {
		r.ID = store.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.Entities = store.UniqueEntities(r.Entities)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[r.ID] = copyRecord(r)
	return r.ID, nil
}

// Get returns a record by id.
func (s *Store) Get(ctx context.Context, id string) (store.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.docs[id]; ok {
		return copyRecord(r), true, nil
	}
	return store.Record{}, false, nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs), nil
}

// DocsWithEntity returns ids of records holding the entity.
func (s *Store) DocsWithEntity(ctx context.Context, kind, value string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := store.Entity{Kind: kind, Value: value}
	var ids []string
	for id, r := range s.docs {
		if slices.Contains(r.Entities, want) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func copyRecord(r store.Record) store.Record {
	return store.Record{
		ID:        r.ID,
		Body:      slices.Clone(r.Body),
		Entities:  slices.Clone(r.Entities),
		CreatedAt: r.CreatedAt,
	}
}
