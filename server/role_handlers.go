package server

import (
	"net/http"

	"github.com/campusmedia/go-staff-console/identity"
	"github.com/campusmedia/go-staff-console/roles"
)

// RoleHandler resolves the active identity's authorization role and the
// management sections it unlocks. Role data is never cached across a
// switch; the SPA re-fetches after every reload.
func (s *Server) RoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.manager.ActiveSession()
		if session == nil {
			writeJSONError(w, "not_signed_in", identity.ErrNoActiveSession.Error(), http.StatusUnauthorized)
			return
		}

		role, err := s.roles.Resolve(r.Context(), session.User.ID)
		if err != nil {
			writeJSONError(w, "role_lookup_failed", err.Error(), http.StatusBadGateway)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":  session.User.ID,
			"email":    session.User.Email,
			"role":     role,
			"sections": roles.ManageableSections(role),
		})
	}
}
