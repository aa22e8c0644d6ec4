package storage

import (
	"context"
	"crypto/rand"

	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// The account cache holds refresh tokens, so the sealed wrapper is the
// recommended configuration for shared machines.

const (
	saltKey   = "_sealed_salt"
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

var ErrSealedValue = errors.New("sealed value could not be opened")

var _ KV = (*SealedStore)(nil)

// SealedStore encrypts values at rest with a key derived from a passphrase.
// Keys (names) stay in the clear; values are nonce-prefixed secretboxes.
type SealedStore struct {
	inner KV
	key   [keySize]byte
}

// NewSealedStore derives the sealing key via scrypt. The salt lives in the
// underlying store so the same passphrase reopens the namespace later.
func NewSealedStore(ctx context.Context, inner KV, passphrase string) (*SealedStore, error) {
	if inner == nil {
		return nil, errors.New("[NewSealedStore] inner store is required")
	}
	if passphrase == "" {
		return nil, errors.New("[NewSealedStore] passphrase is required")
	}

	salt, ok, err := inner.Get(ctx, saltKey)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSealedStore] load salt")
	}
	if !ok {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, errors.Wrap(err, "[NewSealedStore] rand.Read")
		}
		if err := inner.Set(ctx, saltKey, salt); err != nil {
			return nil, errors.Wrap(err, "[NewSealedStore] store salt")
		}
	}

	derived, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, errors.Wrap(err, "[NewSealedStore] scrypt")
	}

	s := &SealedStore{inner: inner}
	copy(s.key[:], derived)
	return s, nil
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	if len(sealed) < nonceSize {
		return nil, false, errors.Wrapf(ErrSealedValue, "[SealedStore.Get] %s: short value", key)
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plain, opened := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !opened {
		return nil, false, errors.Wrapf(ErrSealedValue, "[SealedStore.Get] %s", key)
	}
	return plain, true, nil
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return errors.Wrapf(err, "[SealedStore.Set] %s: rand.Read", key)
	}

	sealed := secretbox.Seal(nonce[:], value, &nonce, &s.key)
	return s.inner.Set(ctx, key, sealed)
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}
