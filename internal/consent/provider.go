package consent

import (
	"sync"

	"rtbconsent/internal/consent/models"
)

// Provider is the read-only source of the current consent state.
// Implementations must return a value the caller may freely mutate.
type Provider interface {
	Snapshot() models.Snapshot
}

type staticProvider struct {
	snap models.Snapshot
}

// Static returns a Provider that always yields a copy of snap.
func Static(snap models.Snapshot) Provider {
	return staticProvider{snap: snap.Clone()}
}

func (p staticProvider) Snapshot() models.Snapshot {
	return p.snap.Clone()
}

// Manager holds consent state that changes over the life of a process, for
// example as a CMP reports new decisions. It is safe for concurrent use and
// always hands out deep copies.
type Manager struct {
	mu   sync.RWMutex
	snap models.Snapshot
}

// NewManager creates a Manager seeded with initial.
func NewManager(initial models.Snapshot) *Manager {
	return &Manager{snap: initial.Clone()}
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone()
}

// Set replaces the current state.
func (m *Manager) Set(snap models.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
}

// Update applies fn to the current state under the write lock.
func (m *Manager) Update(fn func(*models.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.snap.Clone()
	fn(&next)
	m.snap = next.Clone()
}

// Reset clears every value.
func (m *Manager) Reset() {
	m.Set(models.Snapshot{})
}
