package config

import "strings"

type Identity struct{}

var _ IdentityConfig = Identity{}

// GetIssuerURL returns the OIDC issuer of the hosted identity platform.
func (Identity) GetIssuerURL() string {
	return GetEnv("IDENTITY_ISSUER_URL", "http://localhost:9000")
}

func (Identity) GetClientID() string {
	return GetEnv("IDENTITY_CLIENT_ID", "staff-console")
}

func (Identity) GetClientSecret() string {
	return GetEnv("IDENTITY_CLIENT_SECRET", "")
}

func (Identity) GetScopes() []string {
	scopes := GetEnv("IDENTITY_SCOPES", "")
	if scopes == "" {
		return nil // identity.NewClient applies its defaults
	}
	return strings.Fields(scopes)
}

// GetRoleServiceURL returns the base URL of the role lookup endpoint.
func (Identity) GetRoleServiceURL() string {
	return GetEnv("ROLE_SERVICE_URL", "")
}
