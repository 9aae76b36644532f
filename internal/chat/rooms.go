package chat

import "sync"

// rooms tracks which sessions are joined to which room.
type rooms struct {
	mu      sync.RWMutex
	members map[string]map[*Session]struct{}
}

func newRooms() *rooms {
	return &rooms{members: make(map[string]map[*Session]struct{})}
}

func (r *rooms) add(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[roomID]; !ok {
		r.members[roomID] = make(map[*Session]struct{})
	}
	r.members[roomID][s] = struct{}{}
}

func (r *rooms) remove(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sessions, ok := r.members[roomID]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(r.members, roomID)
		}
	}
}

func (r *rooms) snapshot(roomID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*Session, 0, len(r.members[roomID]))
	for s := range r.members[roomID] {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *rooms) size(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[roomID])
}
