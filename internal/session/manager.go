package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vyuha/portfolioviz/internal/graph"
	"github.com/vyuha/portfolioviz/internal/view"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL is how long an idle session lives.
const DefaultTTL = 30 * time.Minute

// Manager owns the live sessions. It guards only the id → session map;
// each session serialises its own submissions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time

	// OnEvict, when set, is called after a session is removed.
	OnEvict func(id string)
}

// NewManager creates a manager. A non-positive ttl selects DefaultTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new idle session over model. camFor builds the camera
// for the new session id and may be nil.
func (m *Manager) Create(slug string, model *graph.Model, geo view.Geometry, camFor func(id string) view.Camera) *Session {
	id := uuid.New().String()
	var cam view.Camera
	if camFor != nil {
		cam = camFor(id)
	}
	s := New(id, slug, model, geo, cam)
	s.now = m.now
	s.lastActive = m.now()

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	slog.Debug("session created", "id", id, "slug", slug, "active", n)
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// End discards a session and its selection.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if m.OnEvict != nil {
		m.OnEvict(id)
	}
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune ends every session idle for longer than the TTL and returns how
// many were removed. Sessions with an attached event stream are kept.
func (m *Manager) Prune() int {
	cutoff := m.now().Add(-m.ttl)

	var expired []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if !s.Streaming() && s.LastActive().Before(cutoff) {
			expired = append(expired, id)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if m.OnEvict != nil {
			m.OnEvict(id)
		}
	}
	if len(expired) > 0 {
		slog.Info("sessions pruned", "count", len(expired))
	}
	return len(expired)
}

// Run prunes expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune()
		}
	}
}
