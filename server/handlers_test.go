package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusmedia/go-staff-console/accounts"
	"github.com/campusmedia/go-staff-console/identity"
	"github.com/campusmedia/go-staff-console/identity/storefakes"
	"github.com/campusmedia/go-staff-console/internal/config"
	"github.com/campusmedia/go-staff-console/roles"
	"github.com/campusmedia/go-staff-console/roles/rolefakes"
	"github.com/campusmedia/go-staff-console/storage"
	"github.com/campusmedia/go-staff-console/switcher"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type serverFixture struct {
	store    *storefakes.FakeStore
	resolver *rolefakes.FakeResolver
	notices  *NoticeFeed
	manager  *switcher.Manager
	server   *Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	t.Setenv("ENV", "TEST")

	ctx := context.Background()

	kv, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	cache, err := accounts.NewCache(ctx, kv, zerolog.Nop())
	require.NoError(t, err)
	prefs, err := accounts.NewLoginPrefs(kv)
	require.NoError(t, err)

	store := storefakes.NewFakeStore()
	notices := NewNoticeFeed()

	manager, err := switcher.NewManager(ctx, switcher.Deps{
		Store: store,
		Cache: cache,
		Prefs: prefs,
	}, switcher.WithNotifier(notices))
	require.NoError(t, err)
	t.Cleanup(manager.Close)

	resolver := rolefakes.NewFakeResolver()

	srv, err := New(config.New(), manager, resolver, notices)
	require.NoError(t, err)

	return &serverFixture{
		store:    store,
		resolver: resolver,
		notices:  notices,
		manager:  manager,
		server:   srv,
	}
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)

	resp := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func (f *serverFixture) login(t *testing.T, email, password string) {
	t.Helper()
	f.store.SeedUser(email, password)
	rec, _ := f.do(t, http.MethodPost, RouteSessionLogin, map[string]any{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func (f *serverFixture) cachedEmails(t *testing.T) []string {
	t.Helper()
	rec, resp := f.do(t, http.MethodGet, RouteAccounts, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries, ok := resp["accounts"].([]any)
	require.True(t, ok)

	emails := make([]string, 0, len(entries))
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		require.True(t, ok)
		emails = append(emails, entry["email"].(string))
	}
	return emails
}

func TestHealthHandler(t *testing.T) {
	fixture := newServerFixture(t)

	rec, resp := fixture.do(t, http.MethodGet, RouteHealth, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", resp["status"])
}

func TestLoginRecordsLastActiveEmail(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.login(t, "alice@campus.org", "pw-alice")

	rec, resp := fixture.do(t, http.MethodGet, RouteSession, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, resp["signed_in"])
	require.Equal(t, "alice@campus.org", resp["last_active_email"])

	session, ok := resp["session"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "alice@campus.org", session["email"])
}

func TestLoginInvalidCredentials(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.store.SeedUser("alice@campus.org", "pw-alice")

	rec, resp := fixture.do(t, http.MethodPost, RouteSessionLogin, map[string]any{
		"email":    "alice@campus.org",
		"password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_credentials", resp["error"])
	require.Contains(t, resp["error_description"], "alice@campus.org")
}

func TestLoginRememberMe(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.store.SeedUser("alice@campus.org", "pw-alice")

	rec, _ := fixture.do(t, http.MethodPost, RouteSessionLogin, map[string]any{
		"email":    "alice@campus.org",
		"password": "pw-alice",
		"remember": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	_, resp := fixture.do(t, http.MethodGet, RouteSession, nil)
	require.Equal(t, "alice@campus.org", resp["remembered_email"])
}

func TestLoginRejectsMissingFields(t *testing.T) {
	fixture := newServerFixture(t)

	rec, resp := fixture.do(t, http.MethodPost, RouteSessionLogin, map[string]any{
		"email": "alice@campus.org",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_request", resp["error"])
}

func TestSignupSignsIn(t *testing.T) {
	fixture := newServerFixture(t)

	rec, resp := fixture.do(t, http.MethodPost, RouteSessionSignup, map[string]any{
		"email":    "carol@campus.org",
		"password": "pw-carol",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, resp["signed_in"])
	require.Equal(t, "carol@campus.org", fixture.store.ActiveEmail())
}

func TestLogoutIsIdempotent(t *testing.T) {
	fixture := newServerFixture(t)

	rec, resp := fixture.do(t, http.MethodPost, RouteSessionLogout, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, resp["signed_out"])
}

func TestAddAccountParksActiveIdentity(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.login(t, "alice@campus.org", "pw-alice")

	rec, resp := fixture.do(t, http.MethodPost, RouteAccountsAdd, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, resp["signed_out"])
	require.Equal(t, float64(1), resp["cached_accounts"])

	require.Equal(t, "", fixture.store.ActiveEmail())
	require.Equal(t, []string{"alice@campus.org"}, fixture.cachedEmails(t))
}

func TestSwitchAccountSuccess(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.login(t, "alice@campus.org", "pw-alice")
	_, _ = fixture.do(t, http.MethodPost, RouteAccountsAdd, nil)
	fixture.login(t, "bob@campus.org", "pw-bob")

	rec, resp := fixture.do(t, http.MethodPost, RouteAccountsSwitch, map[string]any{
		"email": "alice@campus.org",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, resp["switched"])
	require.Equal(t, true, resp["reload"])

	session, ok := resp["session"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "alice@campus.org", session["email"])

	// Bob takes alice's place in the cached set.
	require.Equal(t, "alice@campus.org", fixture.store.ActiveEmail())
	require.Equal(t, []string{"bob@campus.org"}, fixture.cachedEmails(t))
}

func TestSwitchAccountExpiredSessionRoutesToReauth(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.login(t, "alice@campus.org", "pw-alice")
	_, _ = fixture.do(t, http.MethodPost, RouteAccountsAdd, nil)
	fixture.login(t, "bob@campus.org", "pw-bob")

	cached := fixture.manager.CachedAccounts()
	require.Len(t, cached, 1)
	fixture.store.Revoke(cached[0].Session.RefreshToken)

	rec, resp := fixture.do(t, http.MethodPost, RouteAccountsSwitch, map[string]any{
		"email": "alice@campus.org",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "session_expired", resp["error"])
	require.Equal(t, "reauth", resp["action"])
	require.Equal(t, "alice@campus.org", resp["email"])
	require.Equal(t, RouteLogin+"?email=alice%40campus.org", resp["login_url"])

	// The working session is untouched; only the stale entry is evicted.
	require.Equal(t, "bob@campus.org", fixture.store.ActiveEmail())
	require.Empty(t, fixture.cachedEmails(t))

	_, noticesResp := fixture.do(t, http.MethodGet, RouteNotices, nil)
	notices, ok := noticesResp["notices"].([]any)
	require.True(t, ok)
	require.Len(t, notices, 1)
	notice := notices[0].(map[string]any)
	require.Contains(t, notice["message"], "alice@campus.org")
	require.Equal(t, string(switcher.NoticeWarn), notice["level"])
}

func TestSwitchAccountUnknownTarget(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.login(t, "alice@campus.org", "pw-alice")

	rec, resp := fixture.do(t, http.MethodPost, RouteAccountsSwitch, map[string]any{
		"email": "nobody@campus.org",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "unknown_account", resp["error"])
	require.Equal(t, "alice@campus.org", fixture.store.ActiveEmail())
}

func TestRoleHandlerRequiresSession(t *testing.T) {
	fixture := newServerFixture(t)

	rec, resp := fixture.do(t, http.MethodGet, RouteRole, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "not_signed_in", resp["error"])
	require.Equal(t, identity.ErrNoActiveSession.Error(), resp["error_description"])
}

func TestRoleHandlerResolvesSections(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.login(t, "alice@campus.org", "pw-alice")
	fixture.resolver.SetRole("user-alice@campus.org", roles.RoleJournalismAdmin)

	rec, resp := fixture.do(t, http.MethodGet, RouteRole, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, string(roles.RoleJournalismAdmin), resp["role"])

	sections, ok := resp["sections"].([]any)
	require.True(t, ok)
	require.Contains(t, sections, string(roles.SectionArticles))
}

func TestNoticesDrainOnce(t *testing.T) {
	fixture := newServerFixture(t)
	fixture.notices.Notify(switcher.NoticeInfo, "hello")

	_, first := fixture.do(t, http.MethodGet, RouteNotices, nil)
	require.Len(t, first["notices"].([]any), 1)

	_, second := fixture.do(t, http.MethodGet, RouteNotices, nil)
	require.Empty(t, second["notices"].([]any))
}
