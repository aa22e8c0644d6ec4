package server

const (
	RouteHealth = "/healthz"

	RouteSession       = "/api/session"
	RouteSessionLogin  = "/api/session/login"
	RouteSessionSignup = "/api/session/signup"
	RouteSessionLogout = "/api/session/logout"

	RouteAccounts       = "/api/accounts"
	RouteAccountsAdd    = "/api/accounts/add"
	RouteAccountsSwitch = "/api/accounts/switch"

	RouteRole    = "/api/role"
	RouteNotices = "/api/notices"

	// RouteLogin is where the SPA's re-authentication screen lives; a
	// failed switch points the client here with the email pre-filled.
	RouteLogin = "/login"
)
