package session

import (
	"errors"
	"sort"
	"sync"
)

var ErrSinkClosed = errors.New("connection sink is closed")

// Connection is a live push sink owned by the transport layer.
type Connection interface {
	ID() string
	UserID() string
	// Push enqueues a frame without blocking; it returns ErrSinkClosed when the
	// connection is gone or can't keep up.
	Push(frame []byte) error
	Close()
}

// Registry maps game ids to the connections subscribed to them.
type Registry struct {
	mu    sync.RWMutex
	games map[string]map[string]Connection
}

func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]map[string]Connection),
	}
}

func (that *Registry) Register(gameID string, conn Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	conns, ok := that.games[gameID]
	if !ok {
		conns = make(map[string]Connection)
		that.games[gameID] = conns
	}

	conns[conn.ID()] = conn
}

// Deregister removes the connection from one game and reports whether it was registered.
func (that *Registry) Deregister(gameID, connID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.deregister(gameID, connID)
}

// DeregisterByConnectionID removes the connection from every game and returns those games.
func (that *Registry) DeregisterByConnectionID(connID string) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	var removed []string
	for gameID := range that.games {
		if that.deregister(gameID, connID) {
			removed = append(removed, gameID)
		}
	}

	return removed
}

func (that *Registry) deregister(gameID, connID string) bool {
	conns, ok := that.games[gameID]
	if !ok {
		return false
	}

	if _, ok = conns[connID]; !ok {
		return false
	}

	delete(conns, connID)
	if len(conns) == 0 {
		delete(that.games, gameID)
	}

	return true
}

// ConnectionsOf returns a copy of the game's connections, safe to iterate while the registry changes.
func (that *Registry) ConnectionsOf(gameID string) []Connection {
	that.mu.RLock()
	defer that.mu.RUnlock()

	conns := that.games[gameID]
	result := make([]Connection, 0, len(conns))
	for _, conn := range conns {
		result = append(result, conn)
	}

	return result
}

// GameIDs lists games with at least one connection.
func (that *Registry) GameIDs() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	ids := make([]string, 0, len(that.games))
	for gameID := range that.games {
		ids = append(ids, gameID)
	}
	sort.Strings(ids)

	return ids
}

// Snapshot returns the number of connections per game.
func (that *Registry) Snapshot() map[string]int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	snapshot := make(map[string]int, len(that.games))
	for gameID, conns := range that.games {
		snapshot[gameID] = len(conns)
	}

	return snapshot
}
