package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"famspend/internal/core"
)

func newTestManager(now func() time.Time, max int) *Manager {
	return NewManager(&stubEngine{}, nil, ManagerConfig{TTL: time.Minute, MaxSessions: max, Now: now}, nil)
}

func TestManager_CreateAndGet(t *testing.T) {
	m := newTestManager(fixedNow, 10)
	s := m.Create(testUser)

	got, err := m.Get(s.ID(), testUser)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get(s.ID(), core.Identity{UserID: "intruder"})
	assert.ErrorIs(t, err, ErrSessionOwner)

	_, err = m.Get("missing", testUser)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_ExpiryClosesSession(t *testing.T) {
	clock := testNow
	m := newTestManager(func() time.Time { return clock }, 10)
	s := m.Create(testUser)

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 1, m.CleanExpired())
	assert.Equal(t, StateClosed, s.State())

	_, err := m.Get(s.ID(), testUser)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m := newTestManager(fixedNow, 2)
	first := m.Create(testUser)
	second := m.Create(testUser)

	_, err := m.Get(first.ID(), testUser)
	require.NoError(t, err)
	third := m.Create(testUser)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, StateClosed, second.State())
	assert.NotEqual(t, StateClosed, first.State())
	assert.NotEqual(t, StateClosed, third.State())
}

func TestManager_DeleteClosesSession(t *testing.T) {
	m := newTestManager(fixedNow, 10)
	s := m.Create(testUser)

	require.NoError(t, m.Delete(s.ID(), testUser))
	assert.Equal(t, StateClosed, s.State())
	assert.ErrorIs(t, m.Delete(s.ID(), testUser), ErrSessionNotFound)
}

func TestManager_GetOrCreateReusesKey(t *testing.T) {
	m := newTestManager(fixedNow, 10)
	a := m.GetOrCreate("tg:42", testUser)
	b := m.GetOrCreate("tg:42", testUser)
	assert.Same(t, a, b)

	a.Close()
	c := m.GetOrCreate("tg:42", testUser)
	assert.NotSame(t, a, c)
	assert.Equal(t, "tg:42", c.ID())
}
