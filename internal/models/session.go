package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the result of one aggregation run. It is treated as immutable
// once stored.
type Snapshot struct {
	Data     AllData         `json:"data"`
	Failures map[Kind]string `json:"failures,omitempty"`
	LoadedAt time.Time       `json:"loaded_at"`
}

// Session is one signed-in operator. The bearer token is handed over by the
// browser sign-in flow and never serialized.
type Session struct {
	ID        string    `json:"id"`
	Operator  string    `json:"operator"`
	CreatedAt time.Time `json:"created_at"`
	token     string
	snapshot  *Snapshot
}

// NewSession creates an unsaved session carrying a bearer token.
func NewSession(operator, token string) *Session {
	return &Session{Operator: operator, token: token}
}

// BearerToken returns the session's access token ("" when none was provided).
func (s *Session) BearerToken() string {
	return s.token
}

// SessionStore is an in-memory thread-safe store for sessions.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create adds a session, assigning it a UUID and an empty snapshot.
func (s *SessionStore) Create(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.ID = uuid.New().String()
	sess.CreatedAt = time.Now()
	sess.snapshot = &Snapshot{Data: NewAllData()}
	s.sessions[sess.ID] = sess
}

// Get returns a session by ID, or nil if not found.
func (s *SessionStore) Get(id string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

// Delete signs a session out, discarding its snapshot.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.snapshot = nil
	delete(s.sessions, id)
	return true
}

// Snapshot returns the session's current data snapshot.
func (s *SessionStore) Snapshot(id string) (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || sess.snapshot == nil {
		return nil, false
	}
	return sess.snapshot, true
}

// ReplaceSnapshot swaps the session's snapshot wholesale. It reports false when
// the session signed out in the meantime.
func (s *SessionStore) ReplaceSnapshot(id string, snap *Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.snapshot = snap
	return true
}
