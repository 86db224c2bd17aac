package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/desktopfriends/petagent/internal/config"
)

// Manager owns one session per configured persona.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager builds a session for every persona in the config. A
// single bad persona fails startup; half-initialized pet rosters are
// worse than a clear error.
func NewManager(personas []config.PersonaConfig, collab Collaborators) (*Manager, error) {
	if len(personas) == 0 {
		return nil, fmt.Errorf("no personas configured")
	}

	m := &Manager{sessions: make(map[string]*Session, len(personas))}
	for _, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona %q has no id", p.Name)
		}
		if _, exists := m.sessions[p.ID]; exists {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		sess, err := NewSession(p, collab)
		if err != nil {
			return nil, fmt.Errorf("persona %q: %w", p.ID, err)
		}
		m.sessions[p.ID] = sess
	}
	return m, nil
}

// Session returns the session for a persona id.
func (m *Manager) Session(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// IDs returns all persona ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
