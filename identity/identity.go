package identity

import "time"

// User is the identity the platform reports for a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a bearer credential pair issued by the identity platform,
// plus issuing metadata. The platform owns the single active session;
// everything held here is a copy.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry. A missing
// expiry is treated as not expired - the platform is the authority and
// will reject the token if it disagrees.
func (s *Session) Expired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return now.After(s.ExpiresAt)
}

// Clone returns a copy so callers can hold a session without sharing
// memory with the store's active slot.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
