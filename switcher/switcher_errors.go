package switcher

import "errors"

var (
	// ErrCachedSessionExpired is returned when a switch target's cached
	// token pair is rejected by the identity platform. The target has been
	// evicted from the cache and the caller has been routed to re-auth;
	// the previously active session is untouched.
	ErrCachedSessionExpired = errors.New("cached session expired or revoked")
)
