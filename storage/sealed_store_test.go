package storage_test

import (
	"context"
	"testing"

	"github.com/campusmedia/go-staff-console/storage"
	"github.com/stretchr/testify/require"
)

func TestSealedStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	inner, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	sealed, err := storage.NewSealedStore(ctx, inner, "correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, sealed.Set(ctx, "available_accounts", []byte(`[{"user":{"email":"a@x.com"}}]`)))

	got, ok, err := sealed.Get(ctx, "available_accounts")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`[{"user":{"email":"a@x.com"}}]`), got)

	// The value on disk must not be the plaintext
	raw, ok, err := inner.Get(ctx, "available_accounts")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotContains(t, string(raw), "a@x.com")
}

func TestSealedStoreSamePassphraseReopens(t *testing.T) {
	ctx := context.Background()
	inner, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	first, err := storage.NewSealedStore(ctx, inner, "pass")
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", []byte("v")))

	second, err := storage.NewSealedStore(ctx, inner, "pass")
	require.NoError(t, err)

	got, ok, err := second.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), got)
}

func TestSealedStoreWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	first, err := storage.NewSealedStore(ctx, inner, "pass")
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", []byte("v")))

	wrong, err := storage.NewSealedStore(ctx, inner, "not the pass")
	require.NoError(t, err)

	_, _, err = wrong.Get(ctx, "k")
	require.ErrorIs(t, err, storage.ErrSealedValue)
}
