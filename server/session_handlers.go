package server

import (
	"net/http"
	"time"

	"github.com/campusmedia/go-staff-console/identity"
	"github.com/campusmedia/go-staff-console/internal/utils"
	"github.com/pkg/errors"
)

type sessionPayload struct {
	UserID    string     `json:"user_id"`
	Email     string     `json:"email"`
	TokenType string     `json:"token_type,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func sessionToPayload(session *identity.Session) *sessionPayload {
	if session == nil {
		return nil
	}
	payload := &sessionPayload{
		UserID:    session.User.ID,
		Email:     session.User.Email,
		TokenType: session.TokenType,
	}
	if !session.ExpiresAt.IsZero() {
		payload.ExpiresAt = utils.Ptr(session.ExpiresAt)
	}
	return payload
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// SessionHandler reports the active session plus the stored login-form
// preferences, which is everything the SPA needs to paint its login screen.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.manager.ActiveSession()

		lastActive, err := s.manager.Prefs().LastActiveEmail(r.Context())
		if err != nil {
			writeJSONError(w, "storage_error", err.Error(), http.StatusInternalServerError)
			return
		}
		remembered, hasRemembered, err := s.manager.Prefs().RememberedEmail(r.Context())
		if err != nil {
			writeJSONError(w, "storage_error", err.Error(), http.StatusInternalServerError)
			return
		}

		resp := map[string]any{
			"signed_in":         session != nil,
			"session":           sessionToPayload(session),
			"last_active_email": lastActive,
		}
		if hasRemembered {
			resp["remembered_email"] = remembered
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// LoginHandler authenticates against the identity platform. Credential
// failures are passed back to the SPA unaltered.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, "invalid_request", "failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSONError(w, "invalid_request", "email and password are required", http.StatusBadRequest)
			return
		}

		session, err := s.manager.SignIn(r.Context(), req.Email, req.Password, req.Remember)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidCredentials) {
				writeJSONError(w, "invalid_credentials", err.Error(), http.StatusUnauthorized)
				return
			}
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"signed_in": true,
			"session":   sessionToPayload(session),
		})
	}
}

// SignupHandler registers a new account and signs it in. Fails when the
// identity platform exposes no registration endpoint.
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, "invalid_request", "failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Password == "" {
			writeJSONError(w, "invalid_request", "email and password are required", http.StatusBadRequest)
			return
		}

		session, err := s.manager.SignUp(r.Context(), req.Email, req.Password, req.Remember)
		if err != nil {
			if errors.Is(err, identity.ErrSignUpUnsupported) {
				writeJSONError(w, "signup_unsupported", err.Error(), http.StatusNotImplemented)
				return
			}
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"signed_in": true,
			"session":   sessionToPayload(session),
		})
	}
}

// LogoutHandler discards the active session. Idempotent, so a signed-out
// client calling it again still gets a 200.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.manager.SignOut(r.Context()); err != nil {
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"signed_out": true})
	}
}
