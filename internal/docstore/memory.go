package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore implements Store using in-memory maps.
// Data is lost on restart; it backs development runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Document)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc)
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc Document, opts ...SetOption) error {
	o := applySetOptions(opts)
	clone, err := cloneDocument(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	if existing, ok := coll[id]; ok && o.merge {
		for k, v := range clone {
			existing[k] = v
		}
		return nil
	}
	coll[id] = clone
	return nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, doc Document) (string, error) {
	clone, err := cloneDocument(doc)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.collection(collection)[id] = clone
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, partial Document) error {
	clone, err := cloneDocument(partial)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range clone {
		existing[k] = v
	}
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter) ([]Snapshot, error) {
	want, err := normalizeValue(filter.Value)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Snapshot
	for _, id := range s.sortedIDs(collection) {
		doc := s.collections[collection][id]
		got, ok := doc[filter.Field]
		if !ok || !reflect.DeepEqual(got, want) {
			continue
		}
		clone, err := cloneDocument(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, Snapshot{ID: id, Data: clone})
	}
	return result, nil
}

func (s *MemoryStore) ListAll(ctx context.Context, collection string) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.sortedIDs(collection)
	result := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		clone, err := cloneDocument(s.collections[collection][id])
		if err != nil {
			return nil, err
		}
		result = append(result, Snapshot{ID: id, Data: clone})
	}
	return result, nil
}

// caller holds s.mu for writing
func (s *MemoryStore) collection(name string) map[string]Document {
	coll, ok := s.collections[name]
	if !ok {
		coll = make(map[string]Document)
		s.collections[name] = coll
	}
	return coll
}

func (s *MemoryStore) sortedIDs(collection string) []string {
	ids := make([]string, 0, len(s.collections[collection]))
	for id := range s.collections[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// cloneDocument round-trips through JSON so stored values have the same
// shapes a real document database hands back (numbers as float64, nested maps).
func cloneDocument(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

func normalizeValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode filter value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode filter value: %w", err)
	}
	return out, nil
}
