package room

import (
	"sync"

	"github.com/wfunc/loupgarou/session"
)

// Manager is the process-wide registry: game id -> room, plus session id ->
// game id routing. Its lock is independent of any room's lock; it is only
// held around map access, never around room mutation.
type Manager struct {
	rooms   map[string]*Room
	routes  map[string]string // session ID -> game ID
	factory func(id string) *Room
	mutex   sync.RWMutex
}

// NewManager builds a registry; factory constructs a room for a game id that
// does not exist yet.
func NewManager(factory func(id string) *Room) *Manager {
	return &Manager{
		rooms:   make(map[string]*Room),
		routes:  make(map[string]string),
		factory: factory,
	}
}

// GetOrCreate returns the room for gameID, creating it on first join.
func (m *Manager) GetOrCreate(gameID string) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[gameID]; exists {
		return room
	}
	room := m.factory(gameID)
	m.rooms[gameID] = room
	return room
}

func (m *Manager) GetRoom(gameID string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	room, exists := m.rooms[gameID]
	return room, exists
}

// Join atomically resolves (or creates) the room for gameID, registers the
// player, and records the routing entry. Holding the registry lock across
// the membership change closes the race between a join and the removal of a
// room whose last member is leaving at the same instant.
func (m *Manager) Join(sess *session.Session, name, gameID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room, exists := m.rooms[gameID]
	if !exists {
		room = m.factory(gameID)
		m.rooms[gameID] = room
	}
	if err := room.Join(sess, name); err != nil {
		return err
	}
	m.routes[sess.ID] = gameID
	return nil
}

// Leave removes the session from its room and destroys the room when it
// empties. Idempotent: the routing entry goes away on the first call, so an
// explicit disconnect followed by the socket closing removes the player
// once.
func (m *Manager) Leave(sess *session.Session) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	gameID, ok := m.routes[sess.ID]
	if !ok {
		return false
	}
	delete(m.routes, sess.ID)
	room, exists := m.rooms[gameID]
	if !exists {
		return false
	}
	if room.Leave(sess) {
		delete(m.rooms, gameID)
	}
	return true
}

// Route returns the room a session belongs to.
func (m *Manager) Route(sessionID string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	gameID, ok := m.routes[sessionID]
	if !ok {
		return nil, false
	}
	room, exists := m.rooms[gameID]
	return room, exists
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
