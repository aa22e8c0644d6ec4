package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/campusmedia/go-staff-console/accounts"
	"github.com/campusmedia/go-staff-console/identity"
	"github.com/campusmedia/go-staff-console/switcher"
	"github.com/pkg/errors"
)

type cachedAccountPayload struct {
	Email         string    `json:"email"`
	UserID        string    `json:"user_id"`
	AddedAt       time.Time `json:"added_at"`
	LikelyExpired bool      `json:"likely_expired"`
}

func cachedAccountToPayload(entry accounts.Entry, now time.Time) cachedAccountPayload {
	payload := cachedAccountPayload{
		Email:   entry.Email(),
		UserID:  entry.User.ID,
		AddedAt: entry.AddedAt,
	}

	// Best effort: an entry flagged here may still restore (the refresh
	// token decides), and an unflagged one may still fail.
	if exp, err := identity.TokenExpiry(entry.Session.AccessToken); err == nil {
		payload.LikelyExpired = exp.Before(now)
	} else {
		payload.LikelyExpired = entry.Session.Expired(now)
	}
	return payload
}

type switchRequest struct {
	Email string `json:"email"`
}

// AccountsHandler lists the cached (inactive) accounts the operator can
// switch to.
func (s *Server) AccountsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries := s.manager.CachedAccounts()
		now := time.Now()

		payload := make([]cachedAccountPayload, 0, len(entries))
		for _, entry := range entries {
			payload = append(payload, cachedAccountToPayload(entry, now))
		}
		writeJSON(w, http.StatusOK, map[string]any{"accounts": payload})
	}
}

// AccountsAddHandler parks the active identity in the cached set and signs
// out, freeing the login form for the next account.
func (s *Server) AccountsAddHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.manager.AddAccount(r.Context()); err != nil {
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"signed_out":      true,
			"cached_accounts": len(s.manager.CachedAccounts()),
		})
	}
}

// AccountsSwitchHandler makes a cached account the active identity.
//
// On success the client must do a full reload - every piece of derived
// state keys off the active identity. On an expired cached session the
// active identity is untouched and the client is pointed at the login
// screen with the target email pre-filled.
func (s *Server) AccountsSwitchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req switchRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, "invalid_request", "failed to parse request body", http.StatusBadRequest)
			return
		}
		if req.Email == "" {
			writeJSONError(w, "invalid_request", "email is required", http.StatusBadRequest)
			return
		}

		if !s.cachedAccountExists(req.Email) {
			writeJSONError(w, "unknown_account", "account is not in the cached set", http.StatusNotFound)
			return
		}

		err := s.manager.SwitchAccount(r.Context(), req.Email)
		if errors.Is(err, switcher.ErrCachedSessionExpired) {
			email := accounts.NormalizeEmail(req.Email)
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error":     "session_expired",
				"action":    "reauth",
				"email":     email,
				"login_url": RouteLogin + "?" + url.Values{"email": {email}}.Encode(),
			})
			return
		}
		if err != nil {
			writeJSONError(w, "server_error", err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"switched": true,
			"reload":   true,
			"session":  sessionToPayload(s.manager.ActiveSession()),
		})
	}
}

func (s *Server) cachedAccountExists(email string) bool {
	normalized := accounts.NormalizeEmail(email)
	for _, entry := range s.manager.CachedAccounts() {
		if entry.Email() == normalized {
			return true
		}
	}
	return false
}
