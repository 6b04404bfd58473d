package store

import (
	"context"
	"sync"

	"rtbconsent/internal/consent/models"
	"rtbconsent/pkg/platform/sentinel"
)

// InMemorySource is a map-backed consent source for tests and local runs.
type InMemorySource struct {
	mu        sync.RWMutex
	snapshots map[string]models.Snapshot
}

func NewInMemorySource() *InMemorySource {
	return &InMemorySource{snapshots: make(map[string]models.Snapshot)}
}

// Put stores a copy of snap for deviceID.
func (s *InMemorySource) Put(deviceID string, snap models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[deviceID] = snap.Clone()
}

// PutStorageKeys stores the snapshot parsed from IAB CMP storage keys, the
// same shape the Redis source reads.
func (s *InMemorySource) PutStorageKeys(deviceID string, kv map[string]string) {
	s.Put(deviceID, models.FromStorageKeys(kv))
}

func (s *InMemorySource) Lookup(ctx context.Context, deviceID string) (models.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[deviceID]
	if !ok {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	return snap.Clone(), nil
}
