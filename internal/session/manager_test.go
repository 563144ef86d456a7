package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyuha/portfolioviz/internal/view"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(time.Minute)
	var evicted []string
	m.OnEvict = func(id string) { evicted = append(evicted, id) }

	var camID string
	s := m.Create("jane", scenarioA(t), geo(), func(id string) view.Camera {
		camID = id
		return &recordingCamera{}
	})
	assert.Equal(t, s.ID, camID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.End(s.ID))
	assert.Equal(t, []string{s.ID}, evicted)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.End(s.ID), ErrNotFound)
}

func TestManager_PruneIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(10 * time.Minute)
	m.now = func() time.Time { return now }

	stale := m.Create("a", scenarioA(t), geo(), nil)
	now = now.Add(8 * time.Minute)
	fresh := m.Create("b", scenarioA(t), geo(), nil)
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, m.Prune())
	_, err := m.Get(stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)

	// A submission keeps a session alive.
	now = now.Add(4 * time.Minute)
	fresh.Submit("jane")
	now = now.Add(9 * time.Minute)
	assert.Equal(t, 0, m.Prune())
}

func TestManager_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewManager(0).ttl)
}

func TestManager_PruneKeepsStreamingSession(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(30 * time.Minute)
	m.now = func() time.Time { return now }

	s := m.Create("a", scenarioA(t), geo(), nil)
	detach := s.Attach()
	assert.True(t, s.Streaming())

	now = now.Add(31 * time.Minute)
	assert.Equal(t, 0, m.Prune())
	_, err := m.Get(s.ID)
	require.NoError(t, err)

	// Closing the stream restarts the idle clock from that moment.
	detach()
	detach()
	assert.False(t, s.Streaming())
	now = now.Add(29 * time.Minute)
	assert.Equal(t, 0, m.Prune())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.Prune())
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
