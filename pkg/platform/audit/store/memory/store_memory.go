package memory

import (
	"context"
	"sync"

	audit "rtbconsent/pkg/platform/audit"
)

// InMemoryStore keeps audit events in process, indexed by request id.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    []audit.Event
	byRequest map[string][]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byRequest: make(map[string][]int)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.byRequest = make(map[string][]int)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRequest[event.RequestID] = append(s.byRequest[event.RequestID], len(s.events))
	s.events = append(s.events, event)
	return nil
}

// ListByRequest returns the events recorded for one inbound request, oldest first.
func (s *InMemoryStore) ListByRequest(_ context.Context, requestID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.byRequest[requestID]
	out := make([]audit.Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.events[i])
	}
	return out, nil
}

// ListAll returns every event in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListRecent returns the last limit events in append order.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.events)-limit, 0)
	return append([]audit.Event{}, s.events[start:]...), nil
}
