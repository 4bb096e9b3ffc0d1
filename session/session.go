package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/browser-bridge/browser"
)

var (
	// ErrSessionNotFound is returned when a session is not registered.
	ErrSessionNotFound = errors.New("session not found")
)

// Session is an open browser bound to a single test run.
type Session struct {
	ID        uuid.UUID
	TestID    string
	Browser   browser.Type
	Page      browser.Page
	CreatedAt time.Time
}

// Age returns how long the session has been open.
func (s *Session) Age() time.Duration {
	return time.Since(s.CreatedAt)
}

// Store is a concurrency-safe in-memory map of open sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Set stores a session and returns the resulting number of sessions.
func (s *Store) Set(session *Session) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	return len(s.sessions)
}

// Get retrieves a session from the store.
func (s *Store) Get(sessionID uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session from the store. It reports whether the session
// existed and the number of sessions left.
func (s *Store) Delete(sessionID uuid.UUID) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return exists, len(s.sessions)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// All returns a snapshot of the stored sessions.
func (s *Store) All() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		all = append(all, session)
	}
	return all
}
