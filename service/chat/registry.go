package chat

import (
	"sync"
)

// Registry is the single source of truth for "is this user reachable".
// One live connection per user: a second bind for the same user supersedes
// the first (the superseded connection is left open, it just stops being
// authoritative).
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{byUser: make(map[string]*Client)}
}

// Bind registers c as the live connection for userID, overwriting any
// previous binding. Returns the superseded client, if any.
func (r *Registry) Bind(userID string, c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.byUser[userID]
	r.byUser[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Unbind removes the mapping only when c is still the registered
// connection for userID. A stale close from a superseded connection must
// not evict a fresh binding.
func (r *Registry) Unbind(userID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.byUser[userID]; ok && cur == c {
		delete(r.byUser, userID)
		return true
	}
	return false
}

// Lookup returns the live connection for userID.
func (r *Registry) Lookup(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[userID]
	return c, ok
}

// IsOnline reports whether userID currently has a registered connection.
func (r *Registry) IsOnline(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// Snapshot returns all bound clients except excludeUserID. Callers send
// outside the lock.
func (r *Registry) Snapshot(excludeUserID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byUser))
	for user, c := range r.byUser {
		if user == excludeUserID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Count returns the number of bound users (debug/statistics).
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}
