package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/nlpingest/pkg/nlpingest/merge"
)

// Sink persists enriched documents.
type Sink interface {
	Close() error

	// Put inserts or replaces a record and returns its id. A record without
	// an id gets a new ULID.
	Put(ctx context.Context, r Record) (string, error)
	Get(ctx context.Context, id string) (Record, bool, error)
	Count(ctx context.Context) (int, error)

	// DocsWithEntity returns the ids of records holding value under kind,
	// in id order.
	DocsWithEntity(ctx context.Context, kind, value string) ([]string, error)
}

// Record is a stored document.
type Record struct {
	ID        string
	Body      json.RawMessage
	Entities  []Entity
	CreatedAt time.Time
}

// Entity is one extracted value of a record.
type Entity struct {
	Kind  string
	Value string
}

// FromFields builds a record from a document tree. Entities are read from
// entitiesField when it holds a kind -> values object; entries that are not
// string lists are kept in the body but not indexed.
func FromFields(id string, fields map[string]any, entitiesField string) (Record, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return Record{}, fmt.Errorf("encode document %s: %w", id, err)
	}
	r := Record{ID: id, Body: body}

	if entitiesField == "" {
		return r, nil
	}
	raw, ok := fields[entitiesField]
	if !ok {
		return r, nil
	}
	byKind, _, err := merge.SplitEntities(raw)
	if err != nil {
		return Record{}, fmt.Errorf("document %s field %s: %w", id, entitiesField, err)
	}

	kinds := make([]string, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		for _, v := range byKind[k] {
			r.Entities = append(r.Entities, Entity{Kind: k, Value: v})
		}
	}
	return r, nil
}

// UniqueEntities drops empty and repeated entities, keeping first occurrences.
func UniqueEntities(in []Entity) []Entity {
	set := make(map[Entity]struct{}, len(in))
	var out []Entity
	for _, e := range in {
		if e.Kind == "" || e.Value == "" {
			continue
		}
		if _, ok := set[e]; ok {
			continue
		}
		set[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

var (
	idMu    sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new ULID string. Safe for concurrent use.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
