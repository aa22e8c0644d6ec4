package config

type Store struct{}

var _ StoreConfig = Store{}

// GetStoreBackend selects the durable local store: "file" or "sqlite".
func (Store) GetStoreBackend() string {
	return GetEnv("STORE_BACKEND", "file")
}

// GetStorePassphrase, when non-empty, wraps the store so cached refresh
// tokens are encrypted at rest.
func (Store) GetStorePassphrase() string {
	return GetEnv("STORE_PASSPHRASE", "")
}
