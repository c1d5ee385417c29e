// Package registry holds the in-memory map of online users to their live
// connection. It is constructed once in main and shared by reference.
package registry

import (
	"sort"
	"sync"

	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"
)

type Registry struct {
	mu      sync.RWMutex
	clients map[string]contracts.Client // user_id → client
}

var _ contracts.Registry = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]contracts.Client),
	}
}

// Register inserts or replaces the entry for userID. The replaced handle is
// returned unclosed so the caller can dispose of it outside the lock.
func (h *Registry) Register(userID string, c contracts.Client) contracts.Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.clients[userID]
	h.clients[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

// Unregister removes userID only if the stored handle is c, so a late
// cleanup from a replaced connection cannot evict its successor.
func (h *Registry) Unregister(userID string, c contracts.Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur, ok := h.clients[userID]
	if !ok || cur != c {
		return false
	}
	delete(h.clients, userID)
	return true
}

func (h *Registry) Get(userID string) (contracts.Client, bool) {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	return c, ok
}

func (h *Registry) IsOnline(userID string) bool {
	_, ok := h.Get(userID)
	return ok
}

// Snapshot returns the registered user ids in sorted order.
func (h *Registry) Snapshot() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (h *Registry) Clients() []contracts.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]contracts.Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

func (h *Registry) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close drops every entry. Handles are not closed here; by shutdown time
// their connections have already been torn down by the lifecycle manager.
func (h *Registry) Close() {
	h.mu.Lock()
	h.clients = make(map[string]contracts.Client)
	h.mu.Unlock()
}
