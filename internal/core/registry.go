package core

import (
	"slices"
	"sync"
)

// Registry maps a user id to its single live connection.
// A later registration for the same user replaces the earlier one.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]Conn
	closed   bool
	onChange func()
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
	}
}

// OnChange installs the observer invoked after every effective mutation.
// It must be set before the registry is shared.
func (r *Registry) OnChange(fn func()) {
	r.onChange = fn
}

// Register inserts or overwrites the mapping for c.UserID().
// Returns the superseded connection, or nil. Fails with ErrHubStopped once Close was called.
func (r *Registry) Register(c Conn) (Conn, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrHubStopped
	}
	prev := r.conns[c.UserID()]
	r.conns[c.UserID()] = c
	r.mu.Unlock()

	r.notify()

	if prev != nil && prev.ID() == c.ID() {
		return nil, nil
	}
	return prev, nil
}

// Close refuses further registrations and returns the connections live at that moment.
// Existing entries stay until their owners unregister.
func (r *Registry) Close() []Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return conns
}

// Unregister removes the mapping only if c is the currently registered connection.
// Returns false for a stale disconnect from a replaced session.
func (r *Registry) Unregister(c Conn) bool {
	r.mu.Lock()
	cur, ok := r.conns[c.UserID()]
	if !ok || cur.ID() != c.ID() {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, c.UserID())
	r.mu.Unlock()

	r.notify()
	return true
}

// Lookup returns the live connection for userID, if any.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// Online returns the sorted set of user ids with a live connection.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

// Snapshot returns the online set together with the connections it was derived from.
func (r *Registry) Snapshot() ([]string, []Conn) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	return r.onlineLocked(), conns
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) onlineLocked() []string {
	online := make([]string, 0, len(r.conns))
	for id := range r.conns {
		online = append(online, id)
	}
	slices.Sort(online)
	return online
}

func (r *Registry) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}
