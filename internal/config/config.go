package config

type Config interface {
	EnvConfig
	CorsConfig
	IdentityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type IdentityConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetScopes() []string
	GetRoleServiceURL() string
}

type StoreConfig interface {
	GetStoreBackend() string
	GetStorePassphrase() string
}

type mainConfig struct {
	EnvVars
	Cors
	Identity
	Store
}

func New() Config {
	return mainConfig{}
}
