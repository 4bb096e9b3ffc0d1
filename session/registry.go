package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
)

// Observer is notified whenever the number of open sessions changes.
type Observer interface {
	SetActiveSessions(n int)
}

// Registry tracks the browser sessions currently open in this process.
// It is used for teardown bookkeeping and introspection only: every session
// is owned by exactly one run.
type Registry struct {
	// mu orders store mutations with their observer updates.
	mu       sync.Mutex
	store    *Store
	logger   logger.Logger
	observer Observer
}

// NewRegistry creates an empty registry. observer may be nil.
func NewRegistry(log logger.Logger, observer Observer) *Registry {
	return &Registry{
		store:    NewStore(),
		logger:   log,
		observer: observer,
	}
}

// Register records an open page for the given test and returns its session.
func (r *Registry) Register(ctx context.Context, testID string, browserType browser.Type, page browser.Page) *Session {
	session := &Session{
		ID:        uuid.New(),
		TestID:    testID,
		Browser:   browserType,
		Page:      page,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.notify(r.store.Set(session))
	r.mu.Unlock()

	r.logger.Debug(ctx, "browser session registered", map[string]interface{}{
		"session_id": session.ID.String(),
		"test_id":    testID,
		"browser":    string(browserType),
	})

	return session
}

// Get retrieves a registered session by ID.
func (r *Registry) Get(sessionID uuid.UUID) (*Session, error) {
	return r.store.Get(sessionID)
}

// Deregister removes a session. Removing an unknown session is a no-op.
func (r *Registry) Deregister(ctx context.Context, sessionID uuid.UUID) {
	r.mu.Lock()
	existed, n := r.store.Delete(sessionID)
	if existed {
		r.notify(n)
	}
	r.mu.Unlock()
	if !existed {
		return
	}

	r.logger.Debug(ctx, "browser session deregistered", map[string]interface{}{
		"session_id": sessionID.String(),
	})
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	return r.store.Len()
}

// CloseAll closes and removes every registered session. Used on shutdown.
func (r *Registry) CloseAll(ctx context.Context) int {
	closed := 0
	for _, s := range r.store.All() {
		if err := s.Page.Close(); err != nil {
			r.logger.Warn(ctx, "failed to close browser session", map[string]interface{}{
				"session_id": s.ID.String(),
				"test_id":    s.TestID,
				"age":        s.Age().String(),
				"error":      err.Error(),
			})
		}
		r.Deregister(ctx, s.ID)
		closed++
	}
	return closed
}

func (r *Registry) notify(n int) {
	if r.observer != nil {
		r.observer.SetActiveSessions(n)
	}
}
