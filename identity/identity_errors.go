package identity

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("session invalid or revoked")
	ErrNoActiveSession    = errors.New("no active session")
	ErrSignUpUnsupported  = errors.New("provider does not support sign up")
)
