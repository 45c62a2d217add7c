// Package nullifier tracks consumed proof nullifiers. Consuming is
// first-writer-wins: a second consume of the same hash fails, which is the
// whole replay defense.
package nullifier

import (
	"context"
	"sync"

	"partyreg/pkg/platform/sentinel"
)

// InMemory keeps consumed nullifiers in a set. Suitable for tests and
// single-process deployments.
type InMemory struct {
	mu   sync.Mutex
	used map[string]bool
}

func NewInMemory() *InMemory {
	return &InMemory{used: make(map[string]bool)}
}

// Consume marks the nullifier used, failing with ErrAlreadyUsed if it was
// consumed before.
func (s *InMemory) Consume(_ context.Context, nullifierHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used[nullifierHash] {
		return sentinel.ErrAlreadyUsed
	}
	s.used[nullifierHash] = true
	return nil
}

// Used reports whether the nullifier has been consumed.
func (s *InMemory) Used(_ context.Context, nullifierHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[nullifierHash], nil
}
