package session

import (
	"sync"
	"time"

	"github.com/wfunc/loupgarou/network"
)

// Session binds one live connection to a stable identifier. Rooms and the
// registry key everything by Session.ID, never by the transport handle.
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	lastActive time.Time
	name       string // player name, set on join
	gameID     string
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		lastActive: now,
	}
}

func (s *Session) Send(v any) error {
	return s.Conn.Send(v)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) SetName(name string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.name = name
}

func (s *Session) Name() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.name
}

func (s *Session) SetGameID(gameID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.gameID = gameID
}

func (s *Session) GameID() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.gameID
}

func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.lastActive = time.Now()
}

func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.lastActive
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Manager tracks every live session in the process.
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// CloseIdle closes connections that never joined a room and have been silent
// longer than maxIdle. The read loops notice the closed socket and tear the
// sessions down through the normal disconnect path. Returns how many were
// closed.
func (m *Manager) CloseIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mutex.RLock()
	var idle []*Session
	for _, s := range m.sessions {
		if s.GameID() == "" && s.LastActive().Before(cutoff) {
			idle = append(idle, s)
		}
	}
	m.mutex.RUnlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}
