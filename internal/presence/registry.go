package presence

import (
	"sort"
	"sync"
)

// Registry maps a participant to the handle of its live connection.
// Only the most recent join per participant is tracked.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]string)}
}

// Register records handle as participantID's live connection, replacing any previous one.
func (r *Registry) Register(participantID, handle string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[participantID] = handle
}

// Unregister removes participantID. Absent participants are ignored.
func (r *Registry) Unregister(participantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, participantID)
}

// UnregisterHandle removes participantID only while it is still bound to handle.
// A connection replaced by a newer join therefore cannot evict its successor.
func (r *Registry) UnregisterHandle(participantID, handle string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.handles[participantID]; ok && current == handle {
		delete(r.handles, participantID)
		return true
	}
	return false
}

// Lookup returns the live handle for participantID.
func (r *Registry) Lookup(participantID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.handles[participantID]
	return handle, ok
}

// IsOnline reports whether participantID has a live connection.
func (r *Registry) IsOnline(participantID string) bool {
	_, ok := r.Lookup(participantID)
	return ok
}

// Count returns the number of registered participants.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Online returns the registered participant ids in sorted order.
func (r *Registry) Online() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
