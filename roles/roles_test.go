package roles_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusmedia/go-staff-console/roles"
	"github.com/stretchr/testify/require"
)

func TestCanManage(t *testing.T) {
	// Plain users see nothing
	require.False(t, roles.CanManage(roles.RoleUser, roles.SectionArticles))
	require.Empty(t, roles.ManageableSections(roles.RoleUser))

	// Journalism admins manage written content, not the radio desk
	require.True(t, roles.CanManage(roles.RoleJournalismAdmin, roles.SectionArticles))
	require.True(t, roles.CanManage(roles.RoleJournalismAdmin, roles.SectionNews))
	require.False(t, roles.CanManage(roles.RoleJournalismAdmin, roles.SectionRadioPrograms))
	require.False(t, roles.CanManage(roles.RoleJournalismAdmin, roles.SectionTheme))

	// Radio admins manage the radio desk, not written content
	require.True(t, roles.CanManage(roles.RoleRadioAdmin, roles.SectionRadioPrograms))
	require.False(t, roles.CanManage(roles.RoleRadioAdmin, roles.SectionArticles))

	// Full admins see everything
	for _, section := range roles.ManageableSections(roles.RoleFullAdmin) {
		require.True(t, roles.CanManage(roles.RoleFullAdmin, section))
	}
	require.True(t, roles.CanManage(roles.RoleFullAdmin, roles.SectionTheme))
	require.True(t, roles.CanManage(roles.RoleFullAdmin, roles.SectionPopups))
}

func TestHTTPResolver(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/user-1":
			_ = json.NewEncoder(w).Encode(map[string]string{"role": "radio_admin"})
		case "/user-2":
			_ = json.NewEncoder(w).Encode(map[string]string{"role": "dj_supreme"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	resolver, err := roles.NewHTTPResolver(ts.URL, func() string { return "token-1" }, ts.Client())
	require.NoError(t, err)

	role, err := resolver.Resolve(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, roles.RoleRadioAdmin, role)

	// Unknown role strings degrade to plain user
	role, err = resolver.Resolve(context.Background(), "user-2")
	require.NoError(t, err)
	require.Equal(t, roles.RoleUser, role)

	// Missing role record is a plain user, not an error
	role, err = resolver.Resolve(context.Background(), "user-3")
	require.NoError(t, err)
	require.Equal(t, roles.RoleUser, role)
}
