package audit

import (
	"context"
	"sync"
)

// Store persists audit events. Append must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// MemoryStore keeps events in memory for development and tests.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryStore constructs an empty in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a snapshot of everything appended so far.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
