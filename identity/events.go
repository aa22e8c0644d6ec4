package identity

// AuthEvent describes a change to the platform's active session.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "signed_in"
	EventSignedOut      AuthEvent = "signed_out"
	EventTokenRefreshed AuthEvent = "token_refreshed"
)

// Subscription is a handle on an auth-state-change registration.
type Subscription struct {
	ID          string
	unsubscribe func()
}

// NewSubscription wraps an unsubscribe hook. Store implementations use this
// to hand out handles without exposing their subscriber bookkeeping.
func NewSubscription(id string, unsubscribe func()) *Subscription {
	return &Subscription{ID: id, unsubscribe: unsubscribe}
}

// Unsubscribe removes the registration. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.unsubscribe == nil {
		return
	}
	s.unsubscribe()
	s.unsubscribe = nil
}
