package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// SESSION
	s.RegisterRouteFunc("GET "+RouteSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSessionLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSessionSignup, ChainMiddleware(s.SignupHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteSessionLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))

	// ACCOUNTS
	s.RegisterRouteFunc("GET "+RouteAccounts, ChainMiddleware(s.AccountsHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAccountsAdd, ChainMiddleware(s.AccountsAddHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAccountsSwitch, ChainMiddleware(s.AccountsSwitchHandler(), s.APIMiddleware()...))

	// ROLE / NOTICES
	s.RegisterRouteFunc("GET "+RouteRole, ChainMiddleware(s.RoleHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteNotices, ChainMiddleware(s.NoticesHandler(), s.APIMiddleware()...))
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"app":    s.config.GetAppName(),
		})
	}
}
