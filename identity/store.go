package identity

import "context"

// SignOutScope controls how far a sign-out reaches.
type SignOutScope string

const (
	// SignOutGlobal revokes the refresh token at the platform before
	// discarding the session. User-initiated sign-out.
	SignOutGlobal SignOutScope = "global"

	// SignOutLocal discards the active session without revoking its
	// refresh token, so a cached copy of the token pair can restore it
	// later. Used when parking an account.
	SignOutLocal SignOutScope = "local"
)

// Store is the remote identity platform, treated as an opaque capability.
// It owns the single active session: exactly one or none at any time,
// mutated only by sign-in, sign-out and a successful session restore.
type Store interface {
	// SignInWithPassword authenticates with email/password credentials and
	// makes the resulting session active.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account and signs it in.
	SignUp(ctx context.Context, email, password string) (*Session, error)

	// SignOut discards the active session; SignOutGlobal also revokes its
	// refresh token at the platform. Idempotent - calling without an
	// active session is a no-op.
	SignOut(ctx context.Context, scope SignOutScope) error

	// SetSession presents a cached token pair as the new active credential.
	// The platform validates the pair; a revoked or expired refresh token
	// fails with ErrSessionInvalid and leaves the active session untouched.
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)

	// GetSession returns a copy of the active session, refreshing it first
	// if the access token has expired. Returns (nil, nil) when signed out.
	GetSession(ctx context.Context) (*Session, error)

	// OnAuthStateChange registers a callback for session changes.
	OnAuthStateChange(fn func(event AuthEvent, session *Session)) *Subscription
}
