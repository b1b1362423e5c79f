package session

import (
	"errors"
	"sync"
)

var ErrSessionNotFound = errors.New("session not found")

// Store keeps the live sessions of this process
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	onDelete []func(*Session)
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Add registers s, replacing any session with the same id
func (st *Store) Add(s *Session) {
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes the session and runs the OnDelete hooks outside the lock
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	hooks := append([]func(*Session){}, st.onDelete...)
	st.mu.Unlock()

	if !ok {
		return
	}
	for _, fn := range hooks {
		fn(s)
	}
}

// All returns a snapshot of the live sessions
func (st *Store) All() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}

// OnDelete registers fn to run whenever a session is deleted
func (st *Store) OnDelete(fn func(*Session)) {
	st.mu.Lock()
	st.onDelete = append(st.onDelete, fn)
	st.mu.Unlock()
}
