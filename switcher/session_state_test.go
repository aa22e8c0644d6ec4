package switcher

import (
	"testing"
	"time"

	"github.com/campusmedia/go-staff-console/identity"
	"github.com/stretchr/testify/require"
)

func TestSessionStateNewestObservationWins(t *testing.T) {
	var state sessionState
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	older := &identity.Session{User: identity.User{Email: "old@x.com"}}
	newer := &identity.Session{User: identity.User{Email: "new@x.com"}}

	require.True(t, state.apply(base.Add(time.Second), newer))

	// A write observed earlier must not clobber the newer one, regardless
	// of arrival order.
	require.False(t, state.apply(base, older))
	require.Equal(t, "new@x.com", state.current().User.Email)
}

func TestSessionStateEqualTimestampIsApplied(t *testing.T) {
	var state sessionState
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.True(t, state.apply(at, &identity.Session{User: identity.User{Email: "a@x.com"}}))
	require.True(t, state.apply(at, &identity.Session{User: identity.User{Email: "b@x.com"}}))
	require.Equal(t, "b@x.com", state.current().User.Email)
}

func TestSessionStateClearsToNil(t *testing.T) {
	var state sessionState
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.True(t, state.apply(at, &identity.Session{User: identity.User{Email: "a@x.com"}}))
	require.True(t, state.apply(at.Add(time.Second), nil))
	require.Nil(t, state.current())
}

func TestSessionStateCurrentReturnsCopy(t *testing.T) {
	var state sessionState
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	state.apply(at, &identity.Session{User: identity.User{Email: "a@x.com"}})

	got := state.current()
	got.User.Email = "mutated@x.com"
	require.Equal(t, "a@x.com", state.current().User.Email)
}
