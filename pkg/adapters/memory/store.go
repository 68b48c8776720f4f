package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jPabloBC/ingenit-flows/pkg/domain"
)

// Store implements ports.FlowStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Flow
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store, optionally seeded with flows.
func NewStore(seed ...*domain.Flow) *Store {
	s := &Store{
		data: make(map[string]*domain.Flow),
	}
	for _, f := range seed {
		_ = s.Save(context.Background(), f)
	}
	return s
}

// Save keeps a deep copy of the flow.
func (s *Store) Save(ctx context.Context, flow *domain.Flow) error {
	if flow == nil || flow.ID == "" {
		return fmt.Errorf("flow id cannot be empty")
	}
	// Deep copy to ensure isolation, similar to serialization
	cp, err := flow.Clone()
	if err != nil {
		return fmt.Errorf("failed to copy flow %s: %w", flow.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[flow.ID] = cp
	return nil
}

// Load retrieves a copy of the flow from memory.
func (s *Store) Load(ctx context.Context, id string) (*domain.Flow, error) {
	s.mu.RLock()
	flow, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrFlowNotFound
	}

	// Create a copy on read so caller can't mutate store state directly by pointer
	return flow.Clone()
}

// Delete removes the flow.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns all stored flow ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
