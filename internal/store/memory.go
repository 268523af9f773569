package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwyoon/noticebot/internal/domain"
)

// InMemoryStore backs the server when no Redis address is configured. It is
// also what most tests run against.
type InMemoryStore struct {
	mu          *sync.RWMutex
	collections map[string]map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		mu:          new(sync.RWMutex),
		collections: make(map[string]map[string][]byte),
	}
}

func (s *InMemoryStore) Get(ctx context.Context, parent Path, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[parent.Key()][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, docKey(parent, id))
	}
	return doc, nil
}

func (s *InMemoryStore) Set(ctx context.Context, parent Path, id string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(parent, id, doc)
	return nil
}

func (s *InMemoryStore) SetBatch(ctx context.Context, parent Path, docs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range docs {
		s.set(parent, id, doc)
	}
	return nil
}

func (s *InMemoryStore) set(parent Path, id string, doc []byte) {
	key := parent.Key()
	if s.collections[key] == nil {
		s.collections[key] = make(map[string][]byte)
	}
	s.collections[key][id] = append([]byte(nil), doc...)
}

func (s *InMemoryStore) Delete(ctx context.Context, parent Path, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[parent.Key()], id)
	return nil
}

func (s *InMemoryStore) List(ctx context.Context, parent Path) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make(map[string][]byte, len(s.collections[parent.Key()]))
	for id, doc := range s.collections[parent.Key()] {
		docs[id] = doc
	}
	return docs, nil
}

func (s *InMemoryStore) ListIDs(ctx context.Context, parent Path) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.collections[parent.Key()]))
	for id := range s.collections[parent.Key()] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *InMemoryStore) ExistsIn(ctx context.Context, parent Path, ids []string) ([]bool, error) {
	if err := checkInQuerySize(ids); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := make([]bool, len(ids))
	for i, id := range ids {
		_, found[i] = s.collections[parent.Key()][id]
	}
	return found, nil
}
