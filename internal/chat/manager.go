package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"famspend/internal/cache"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/store"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrSessionOwner    = errors.New("chat session belongs to another user")
)

// ManagerConfig sizes the session table.
type ManagerConfig struct {
	TTL         time.Duration
	MaxSessions int
	Now         func() time.Time
}

// Manager owns live sessions. Idle sessions expire after TTL and the
// least recently used are dropped once MaxSessions is reached; either way
// the session is closed.
type Manager struct {
	engine   Engine
	lister   store.ExpenseLister
	now      func() time.Time
	logger   *log.Logger
	sessions cache.ExpiringCache[*Session]

	// serializes GetOrCreate so two chats racing on one key share a session
	createMu sync.Mutex
}

func NewManager(engine Engine, lister store.ExpenseLister, cfg ManagerConfig, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	m := &Manager{
		engine: engine,
		lister: lister,
		now:    cfg.Now,
		logger: logger.WithComponent(log.ComponentChat),
	}
	m.sessions = cache.NewLRUCache[*Session](cfg.MaxSessions, cfg.TTL,
		cache.WithSlidingExpiry[*Session](),
		cache.WithClock[*Session](cfg.Now),
		cache.WithEvictHook(func(key string, s *Session) {
			s.Close()
			m.logger.Debug("Chat session closed", log.FieldSessionID, key)
		}),
	)
	return m
}

// Create opens a fresh session for id.
func (m *Manager) Create(id core.Identity) *Session {
	return m.open(uuid.NewString(), id)
}

func (m *Manager) open(key string, id core.Identity) *Session {
	s := NewSession(SessionConfig{
		ID:       key,
		Identity: id,
		Engine:   m.engine,
		Lister:   m.lister,
		Now:      m.now,
		Logger:   m.logger,
	})
	m.sessions.Set(key, s)
	m.logger.Info("Chat session opened",
		log.FieldSessionID, key,
		log.FieldUserID, id.UserID,
		log.FieldFamilyID, id.FamilyID)
	return s
}

// Get returns the live session with key, provided it belongs to id's user.
func (m *Manager) Get(key string, id core.Identity) (*Session, error) {
	s, ok := m.sessions.Get(key)
	if !ok || s.State() == StateClosed {
		return nil, ErrSessionNotFound
	}
	if s.Identity().UserID != id.UserID {
		return nil, ErrSessionOwner
	}
	return s, nil
}

// GetOrCreate returns the session stored under a caller-chosen key,
// opening one when it is missing or closed.
func (m *Manager) GetOrCreate(key string, id core.Identity) *Session {
	m.createMu.Lock()
	defer m.createMu.Unlock()
	if s, ok := m.sessions.Get(key); ok && s.State() != StateClosed {
		return s
	}
	return m.open(key, id)
}

// Delete closes and forgets a session.
func (m *Manager) Delete(key string, id core.Identity) error {
	if _, err := m.Get(key, id); err != nil {
		return err
	}
	m.sessions.Delete(key)
	return nil
}

func (m *Manager) Len() int {
	return m.sessions.Size()
}

// CleanExpired lets a cache.Janitor sweep idle sessions.
func (m *Manager) CleanExpired() int {
	return m.sessions.CleanExpired()
}
