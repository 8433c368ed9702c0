package extractor

import (
	"strings"
	"sync"
)

// registry tracks the dedup keys seen per session. The number of tracked
// sessions is bounded; when the cap is exceeded the oldest sessions are
// evicted first so memory stays flat under churn.
type registry struct {
	mu       sync.Mutex
	max      int
	sessions map[string]map[string]bool
	order    []string
}

func newRegistry(max int) *registry {
	if max <= 0 {
		max = 500
	}
	return &registry{
		max:      max,
		sessions: make(map[string]map[string]bool),
	}
}

// admit records the (type, lowercased value) key and reports whether it was
// new for the session.
func (r *registry) admit(sessionID, itemType, value string) bool {
	if value == "" {
		return false
	}
	key := itemType + ":" + strings.ToLower(value)

	r.mu.Lock()
	defer r.mu.Unlock()

	seen, ok := r.sessions[sessionID]
	if !ok {
		r.evictLocked()
		seen = make(map[string]bool)
		r.sessions[sessionID] = seen
		r.order = append(r.order, sessionID)
	}
	if seen[key] {
		return false
	}
	seen[key] = true
	return true
}

func (r *registry) forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	for i, id := range r.order {
		if id == sessionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *registry) evictLocked() {
	for len(r.sessions) >= r.max && len(r.order) > 0 {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.sessions, oldest)
	}
}
