package cursor

import (
	"context"
	"maps"
	"sync"

	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/chain"
	"github.com/SundaeSwap-finance/acropolis-indexer-sample/pkg/cursor"
)

// Entry seeds a MemoryStore.
type Entry struct {
	Name  string
	Point chain.Point
}

// MemoryStore keeps cursors in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	cursors map[string]chain.Point
}

var (
	_ cursor.ClosableStore = (*MemoryStore)(nil)
	_ cursor.Lister        = (*MemoryStore)(nil)
)

// NewMemoryStore returns a store pre-populated with entries.
func NewMemoryStore(entries ...Entry) *MemoryStore {
	s := &MemoryStore{cursors: make(map[string]chain.Point, len(entries))}
	for _, e := range entries {
		s.cursors[e.Name] = e.Point
	}

	return s
}

func (s *MemoryStore) Load(_ context.Context, name string) (chain.Point, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.cursors[name]
	return p, ok, nil
}

func (s *MemoryStore) Save(_ context.Context, name string, point chain.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[name] = point
	return nil
}

func (s *MemoryStore) List(context.Context) (map[string]chain.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.cursors), nil
}

func (s *MemoryStore) Close() error { return nil }
