// Package storage provides the durable local key/value store the console
// keeps its account cache and login preferences in. Values are opaque byte
// blobs; callers own serialization.
package storage

import "context"

// KV is a small durable key/value store under a fixed local namespace.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set overwrites the value for key wholesale.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases the backing resources.
	Close() error
}
