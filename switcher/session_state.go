package switcher

import (
	"sync"
	"time"

	"github.com/campusmedia/go-staff-console/identity"
)

// sessionState is the single reducer both active-session writers feed: the
// auth-state-change subscription and the explicit startup fetch. Updates
// carry the time they were observed and the newest observation wins, so the
// two writers are idempotent and order-independent.
type sessionState struct {
	lock      sync.RWMutex
	session   *identity.Session
	updatedAt time.Time
}

// apply records session as observed at observedAt. Returns false when a
// newer observation has already been applied.
func (s *sessionState) apply(observedAt time.Time, session *identity.Session) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.updatedAt.IsZero() && observedAt.Before(s.updatedAt) {
		return false
	}
	s.updatedAt = observedAt
	s.session = session.Clone()
	return true
}

// current returns the last applied session, or nil when signed out.
func (s *sessionState) current() *identity.Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.session.Clone()
}
