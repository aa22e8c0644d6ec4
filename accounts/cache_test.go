package accounts_test

import (
	"context"
	"testing"
	"time"

	"github.com/campusmedia/go-staff-console/accounts"
	"github.com/campusmedia/go-staff-console/identity"
	"github.com/campusmedia/go-staff-console/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) storage.KV {
	t.Helper()
	kv, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return kv
}

func entryFor(email string) accounts.Entry {
	return accounts.Entry{
		User: identity.User{ID: "user-" + email, Email: email},
		Session: identity.Session{
			AccessToken:  "access-" + email,
			RefreshToken: "refresh-" + email,
		},
		AddedAt: time.Now(),
	}
}

func TestCachePutDedupesByEmail(t *testing.T) {
	ctx := context.Background()
	cache, err := accounts.NewCache(ctx, newTestKV(t), zerolog.Nop())
	require.NoError(t, err)

	added, err := cache.Put(ctx, entryFor("a@x.com"))
	require.NoError(t, err)
	require.True(t, added)

	// Same email again: first write wins, the stored session is kept
	second := entryFor("a@x.com")
	second.Session.RefreshToken = "refresh-a@x.com-newer"
	added, err = cache.Put(ctx, second)
	require.NoError(t, err)
	require.False(t, added)

	entries := cache.List()
	require.Len(t, entries, 1)
	require.Equal(t, "refresh-a@x.com", entries[0].Session.RefreshToken)
}

func TestCacheDedupeIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	cache, err := accounts.NewCache(ctx, newTestKV(t), zerolog.Nop())
	require.NoError(t, err)

	added, err := cache.Put(ctx, entryFor("A@X.com"))
	require.NoError(t, err)
	require.True(t, added)

	added, err = cache.Put(ctx, entryFor("a@x.com"))
	require.NoError(t, err)
	require.False(t, added)
	require.Len(t, cache.List(), 1)
}

func TestCachePersistsAcrossReload(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)

	cache, err := accounts.NewCache(ctx, kv, zerolog.Nop())
	require.NoError(t, err)
	_, err = cache.Put(ctx, entryFor("a@x.com"))
	require.NoError(t, err)
	_, err = cache.Put(ctx, entryFor("b@x.com"))
	require.NoError(t, err)

	reloaded, err := accounts.NewCache(ctx, kv, zerolog.Nop())
	require.NoError(t, err)

	entries := reloaded.List()
	require.Len(t, entries, 2)
	require.Equal(t, "a@x.com", entries[0].Email())
	require.Equal(t, "b@x.com", entries[1].Email())
}

func TestCacheMalformedStorageFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)
	require.NoError(t, kv.Set(ctx, accounts.AccountsKey, []byte("{not json")))

	cache, err := accounts.NewCache(ctx, kv, zerolog.Nop())
	require.NoError(t, err)
	require.Empty(t, cache.List())

	// The next mutation overwrites the bad value
	_, err = cache.Put(ctx, entryFor("a@x.com"))
	require.NoError(t, err)

	reloaded, err := accounts.NewCache(ctx, kv, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, reloaded.List(), 1)
}

func TestCacheDropsEntriesWithoutEmail(t *testing.T) {
	ctx := context.Background()
	kv := newTestKV(t)
	require.NoError(t, kv.Set(ctx, accounts.AccountsKey,
		[]byte(`[{"user":{"id":"u1","email":"a@x.com"},"session":{}},{"user":{"id":"u2"},"session":{}}]`)))

	cache, err := accounts.NewCache(ctx, kv, zerolog.Nop())
	require.NoError(t, err)

	entries := cache.List()
	require.Len(t, entries, 1)
	require.Equal(t, "a@x.com", entries[0].Email())
}

func TestCacheReplaceSwapsEntries(t *testing.T) {
	ctx := context.Background()
	cache, err := accounts.NewCache(ctx, newTestKV(t), zerolog.Nop())
	require.NoError(t, err)

	_, err = cache.Put(ctx, entryFor("a@x.com"))
	require.NoError(t, err)
	_, err = cache.Put(ctx, entryFor("b@x.com"))
	require.NoError(t, err)

	displaced := entryFor("c@x.com")
	require.NoError(t, cache.Replace(ctx, "a@x.com", &displaced))

	require.False(t, cache.Contains("a@x.com"))
	require.True(t, cache.Contains("b@x.com"))
	require.True(t, cache.Contains("c@x.com"))
	require.Len(t, cache.List(), 2)
}

func TestCacheReplaceWithNilJustRemoves(t *testing.T) {
	ctx := context.Background()
	cache, err := accounts.NewCache(ctx, newTestKV(t), zerolog.Nop())
	require.NoError(t, err)

	_, err = cache.Put(ctx, entryFor("a@x.com"))
	require.NoError(t, err)

	require.NoError(t, cache.Replace(ctx, "a@x.com", nil))
	require.Empty(t, cache.List())
}

func TestCacheSubscribeNotifiesOnMutation(t *testing.T) {
	ctx := context.Background()
	cache, err := accounts.NewCache(ctx, newTestKV(t), zerolog.Nop())
	require.NoError(t, err)

	var seen [][]accounts.Entry
	unsubscribe := cache.Subscribe(func(entries []accounts.Entry) {
		seen = append(seen, entries)
	})

	_, err = cache.Put(ctx, entryFor("a@x.com"))
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.Len(t, seen[0], 1)

	unsubscribe()
	_, err = cache.Remove(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, seen, 1)
}
