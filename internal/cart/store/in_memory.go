package store

import (
	"context"
	"sync"
)

// InMemory implements Slot using an in-memory map.
type InMemory struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemory creates a new, empty in-memory slot.
func NewInMemory() *InMemory {
	return &InMemory{
		values: make(map[string]string),
	}
}

func (s *InMemory) Read(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *InMemory) Write(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}
