package character

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when a store has no record with the requested ID.
var ErrNotFound = errors.New("character not found")

// Store persists character records. ApplyMutations must apply the whole batch
// or nothing.
type Store interface {
	Read(ctx context.Context, id string) (*Record, error)
	ApplyMutations(ctx context.Context, id string, m Mutations) error
}

// MemoryStore is an in-process Store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Create stores a copy of r.
//
// Precondition: r must be non-nil with a non-empty ID.
func (s *MemoryStore) Create(_ context.Context, r *Record) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("%w: record requires an id", ErrInvalidMutation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[r.ID]; exists {
		return fmt.Errorf("character %q already exists", r.ID)
	}
	s.records[r.ID] = r.Clone()
	return nil
}

// Read returns a copy of the stored record.
func (s *MemoryStore) Read(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

// ApplyMutations applies m to the stored record atomically.
func (s *MemoryStore) ApplyMutations(_ context.Context, id string, m Mutations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	next, err := m.ApplyTo(r)
	if err != nil {
		return err
	}
	s.records[id] = next
	return nil
}
