package server

import "sync"

// Registry maps an authenticated user to the connection that most recently
// registered for it. A user has at most one entry; a newer connection
// replaces the older one.
type Registry struct {
	mu    sync.Mutex
	users map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*Client),
	}
}

// Register stores c as the live connection for userId, replacing any
// previous connection.
func (r *Registry) Register(userId string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userId] = c
}

// Unregister removes the mapping for userId only if it still points at c.
// It reports whether the entry was removed.
func (r *Registry) Unregister(userId string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.users[userId]; ok && cur == c {
		delete(r.users, userId)
		return true
	}

	return false
}

func (r *Registry) Lookup(userId string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.users[userId]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
