package chat

import (
	"sort"
	"sync"

	"github.com/HVQuoc/Tessenger/internal/auth"
)

// Registry is the single source of truth for who is online. It maps live
// connections to user identities; one user may hold any number of
// simultaneous connections. All operations are serialized under one mutex,
// so a snapshot taken after an admit or evict completes reflects it.
//
// A connection appears in the registry iff it is eligible to receive pushes;
// eviction is the only way it stops receiving broadcasts.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	byUser map[string]map[string]*Conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  map[string]*Conn{},
		byUser: map[string]map[string]*Conn{},
	}
}

// Admit registers a newly verified connection.
func (r *Registry) Admit(c *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.id] = c
	userID := c.identity.UserID
	owned, ok := r.byUser[userID]
	if !ok {
		owned = map[string]*Conn{}
		r.byUser[userID] = owned
	}
	owned[c.id] = c
}

// Evict removes a connection and reports whether it was present. Evicting an
// already-absent connection is a no-op, not an error.
func (r *Registry) Evict(c *Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[c.id]; !ok {
		return false
	}
	delete(r.conns, c.id)
	userID := c.identity.UserID
	if owned := r.byUser[userID]; owned != nil {
		delete(owned, c.id)
		if len(owned) == 0 {
			delete(r.byUser, userID)
		}
	}
	return true
}

// Snapshot returns the identities of all registered connections,
// deduplicated by user id and ordered by username for stable output.
func (r *Registry) Snapshot() []auth.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	online := make([]auth.Identity, 0, len(r.byUser))
	for _, owned := range r.byUser {
		for _, c := range owned {
			online = append(online, c.identity)
			break
		}
	}
	sort.Slice(online, func(i, j int) bool {
		if online[i].Username != online[j].Username {
			return online[i].Username < online[j].Username
		}
		return online[i].UserID < online[j].UserID
	})
	return online
}

// Find returns all live connections for a user.
func (r *Registry) Find(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned := r.byUser[userID]
	if len(owned) == 0 {
		return nil
	}
	conns := make([]*Conn, 0, len(owned))
	for _, c := range owned {
		conns = append(conns, c)
	}
	return conns
}

// All returns every registered connection.
func (r *Registry) All() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
