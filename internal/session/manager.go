package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager хранит сессии в памяти процесса и удаляет простаивающие.
type Manager struct {
	ttl    time.Duration
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	onExpire func(*Session)
}

// NewManager создаёт менеджер сессий. Сессия истекает после ttl без запросов.
func NewManager(ttl time.Duration, loc *time.Location, logger *zap.Logger) *Manager {
	return &Manager{
		ttl:      ttl,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// OnExpire задаёт обработчик истечения сессии. Он вызывается без блокировок менеджера.
func (m *Manager) OnExpire(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// Create создаёт новую анонимную сессию.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.loc, m.now)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

// Get возвращает сессию и продлевает её жизнь.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = m.now()
	return s, true
}

// Len возвращает число активных сессий.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep удаляет сессии, простаивающие дольше ttl, и возвращает их число.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) >= m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	onExpire := m.onExpire
	m.mu.Unlock()

	for _, s := range expired {
		if onExpire != nil {
			onExpire(s)
		}
	}
	return len(expired)
}

// Run периодически удаляет простаивающие сессии до отмены ctx.
func (m *Manager) Run(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(m.ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("sessions expired", zap.Int("count", n))
			}
		}
	}
}
