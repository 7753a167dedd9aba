package realtime

import "sync"

// SessionRegistry is the transient connection-id -> display-name table. It
// lives only as long as the process and is the single source of truth for
// "currently reachable" students; its size drives the connected-student count
// used by the poll gating rules. Durable identity stays in the store.
type SessionRegistry struct {
	mu    sync.RWMutex
	names map[string]string // connection id -> display name
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{names: make(map[string]string)}
}

// Bind records a connection as belonging to a display name, replacing any
// previous name for that connection.
func (r *SessionRegistry) Bind(connID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[connID] = name
}

// Unbind removes a connection's entry. Unknown connections are a no-op.
func (r *SessionRegistry) Unbind(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.names, connID)
}

// Name returns the display name bound to a connection.
func (r *SessionRegistry) Name(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[connID]
	return name, ok
}

// Connections returns all connection ids currently bound to a display name.
// Normally at most one, but stale entries can linger across reconnects until
// registration migrates them.
func (r *SessionRegistry) Connections(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for conn, n := range r.names {
		if n == name {
			out = append(out, conn)
		}
	}
	return out
}

// Count returns the number of connected students.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}
