package session

import "sync"

// Repository keys live sessions by identifier. The core never deletes a
// session itself; Delete exists for the flush path at conversation end.
type Repository interface {
	GetOrCreate(id string) *Session
	Get(id string) (*Session, bool)
	Delete(id string)
	Len() int
}

// MemoryRepository is a bounded in-memory repository. When the cap is
// exceeded the oldest sessions are evicted first.
type MemoryRepository struct {
	mu       sync.Mutex
	max      int
	sessions map[string]*Session
	order    []string
}

func NewMemoryRepository(max int) *MemoryRepository {
	if max <= 0 {
		max = 500
	}
	return &MemoryRepository{
		max:      max,
		sessions: make(map[string]*Session),
	}
}

func (r *MemoryRepository) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	for len(r.sessions) >= r.max && len(r.order) > 0 {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.sessions, oldest)
	}
	s := newSession(id)
	r.sessions[id] = s
	r.order = append(r.order, id)
	return s
}

func (r *MemoryRepository) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *MemoryRepository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
