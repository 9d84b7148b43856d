package survey

import (
	"sync"
	"time"

	"SurveyBot/model"
)

// Sessions is the in-memory per-user session store. Sessions are not
// durable: a crash loses in-flight, unsubmitted surveys only.
type Sessions struct {
	mu    sync.RWMutex
	items map[int64]*model.Session
}

func NewSessions() *Sessions {
	return &Sessions{
		items: make(map[int64]*model.Session),
	}
}

// Get returns a copy of the user's session, if any.
func (s *Sessions) Get(userID int64) (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.items[userID]
	if !ok {
		return model.Session{}, false
	}
	return *sess, true
}

// Start creates a fresh session at the consent step, discarding any prior
// in-flight session for the same identity.
func (s *Sessions) Start(userID int64) model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	sess := &model.Session{
		UserID:         userID,
		CurrentStep:    model.StepConsent,
		CreatedAt:      now,
		LastActivityAt: now,
	}
	s.items[userID] = sess
	return *sess
}

// Update applies fn to the user's session under the store lock and refreshes
// LastActivityAt. Returns false when no session exists.
func (s *Sessions) Update(userID int64, fn func(*model.Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[userID]
	if !ok {
		return false
	}
	fn(sess)
	sess.LastActivityAt = time.Now()
	return true
}

func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// PurgeIdle drops sessions whose last activity is older than ttl and returns
// how many were dropped. Intended for an external reaper; the engine itself
// never expires sessions.
func (s *Sessions) PurgeIdle(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-ttl)
	purged := 0
	for id, sess := range s.items {
		if sess.LastActivityAt.Before(cutoff) {
			delete(s.items, id)
			purged++
		}
	}
	return purged
}
