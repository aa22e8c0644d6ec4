// Package switcher implements the multi-account session manager: one
// operator, several staff accounts, switching between them in place without
// a full re-login, with graceful degradation when a cached credential has
// expired.
package switcher

import (
	"context"
	"fmt"
	"time"

	"github.com/campusmedia/go-staff-console/accounts"
	"github.com/campusmedia/go-staff-console/identity"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Deps holds the required collaborators for the Manager.
type Deps struct {
	Store identity.Store       // The remote identity platform
	Cache *accounts.Cache      // Cached (inactive) account set
	Prefs *accounts.LoginPrefs // Login-form preferences
}

// Manager wraps the identity store so one operator can hold credentials for
// several staff accounts and switch between them. The active identity is
// delegated entirely to the store; the manager only mirrors it through the
// session-state reducer for synchronous reads.
type Manager struct {
	store identity.Store
	cache *accounts.Cache
	prefs *accounts.LoginPrefs

	notifier  Notifier
	navigator Navigator
	reloader  Reloader

	log     zerolog.Logger
	nowTime func() time.Time

	state sessionState
	sub   *identity.Subscription
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNotifier sets the transient-message sink.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

// WithNavigator sets the re-authentication navigation hook.
func WithNavigator(n Navigator) ManagerOption {
	return func(m *Manager) { m.navigator = n }
}

// WithReloader sets the full-reload hook fired after a successful switch.
func WithReloader(r Reloader) ManagerOption {
	return func(m *Manager) { m.reloader = r }
}

// WithLogger sets the manager's logger.
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = logger }
}

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) { m.nowTime = nowFunc }
}

// NewManager wires the manager to the store: it subscribes to auth-state
// changes and performs one explicit session fetch, covering the case where
// the subscription is established after the initial state has already
// resolved. Both paths feed the same reducer. The explicit fetch's error
// path clears local session state rather than leaving it indeterminate.
func NewManager(ctx context.Context, deps Deps, options ...ManagerOption) (*Manager, error) {
	if deps.Store == nil {
		return nil, errors.New("[NewManager] Store is required")
	}
	if deps.Cache == nil {
		return nil, errors.New("[NewManager] Cache is required")
	}
	if deps.Prefs == nil {
		return nil, errors.New("[NewManager] Prefs is required")
	}

	m := &Manager{
		store:     deps.Store,
		cache:     deps.Cache,
		prefs:     deps.Prefs,
		notifier:  noopNotifier{},
		navigator: noopNavigator{},
		reloader:  noopReloader{},
		log:       zerolog.Nop(),
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(m)
	}

	m.sub = m.store.OnAuthStateChange(func(event identity.AuthEvent, session *identity.Session) {
		m.applyAuthChange(m.nowTime(), event, session)
	})

	session, err := m.store.GetSession(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("startup session fetch failed, treating as signed out")
		m.state.apply(m.nowTime(), nil)
	} else {
		m.applyAuthChange(m.nowTime(), identity.EventSignedIn, session)
	}

	return m, nil
}

// Close detaches the manager from the store's event stream.
func (m *Manager) Close() {
	m.sub.Unsubscribe()
}

// ActiveSession returns the manager's view of the active session, or nil
// when signed out.
func (m *Manager) ActiveSession() *identity.Session {
	return m.state.current()
}

// CachedAccounts returns the cached (inactive) account entries.
func (m *Manager) CachedAccounts() []accounts.Entry {
	return m.cache.List()
}

// Prefs exposes the login-form preferences.
func (m *Manager) Prefs() *accounts.LoginPrefs {
	return m.prefs
}

// SignIn authenticates and records the email for login-form pre-fill.
// Credential errors are surfaced verbatim, no retry.
func (m *Manager) SignIn(ctx context.Context, email, password string, remember bool) (*identity.Session, error) {
	session, err := m.store.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "[SignIn] SignInWithPassword")
	}

	if err := m.prefs.SetLastActiveEmail(ctx, session.User.Email); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist last active email")
	}
	if remember {
		if err := m.prefs.SetRememberedEmail(ctx, session.User.Email); err != nil {
			m.log.Warn().Err(err).Msg("failed to persist remembered email")
		}
	}

	return session, nil
}

// SignUp registers a new account and signs it in, with the same preference
// bookkeeping as SignIn.
func (m *Manager) SignUp(ctx context.Context, email, password string, remember bool) (*identity.Session, error) {
	session, err := m.store.SignUp(ctx, email, password)
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp] store.SignUp")
	}

	if err := m.prefs.SetLastActiveEmail(ctx, session.User.Email); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist last active email")
	}
	if remember {
		if err := m.prefs.SetRememberedEmail(ctx, session.User.Email); err != nil {
			m.log.Warn().Err(err).Msg("failed to persist remembered email")
		}
	}

	return session, nil
}

// SignOut discards the active session and revokes it at the platform.
// Idempotent.
func (m *Manager) SignOut(ctx context.Context) error {
	return errors.Wrap(m.store.SignOut(ctx, identity.SignOutGlobal), "[SignOut] store.SignOut")
}

// AddAccount parks the active identity in the cached set and signs out, so
// the operator can immediately sign in as another account. Dedupe is by
// email, first write wins: re-adding an already-cached email keeps the
// older stored session. Without an active identity this adds nothing and
// only performs the (idempotent) sign-out.
func (m *Manager) AddAccount(ctx context.Context) error {
	session, err := m.store.GetSession(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("add account: session fetch failed, treating as signed out")
		session = nil
	}

	if session != nil {
		added, err := m.cache.Put(ctx, accounts.Entry{
			User:    session.User,
			Session: *session,
			AddedAt: m.nowTime(),
		})
		if err != nil {
			return errors.Wrap(err, "[AddAccount] cache.Put")
		}
		if !added {
			m.log.Info().Str("email", session.User.Email).Msg("account already cached, keeping stored session")
		}
	}

	// Local scope: revoking here would kill the refresh token just parked
	// in the cache and make the account unrestorable.
	if err := m.store.SignOut(ctx, identity.SignOutLocal); err != nil {
		return errors.Wrap(err, "[AddAccount] SignOut")
	}
	return nil
}

// SwitchAccount restores the cached session for targetEmail as the active
// identity.
//
// Failure path: the active identity is never touched - a failed switch must
// not log the operator out of their working account. The unusable target is
// evicted from the cache, a transient notice is raised and the operator is
// routed to re-auth with targetEmail pre-filled.
//
// Success path: the previously active identity takes the target's place in
// the cached set (deduped by email) and a full reload is forced, since all
// derived state keys off the active identity.
func (m *Manager) SwitchAccount(ctx context.Context, targetEmail string) error {
	target, ok := m.cache.Lookup(targetEmail)
	if !ok {
		m.log.Warn().Str("email", targetEmail).Msg("switch requested for account not in cache")
		return nil
	}

	// Captured before the switch so it can be requeued on success. Read
	// from the reducer mirror: a store fetch here could itself refresh or
	// clear the session we are trying to protect.
	previous := m.state.current()

	restored, err := m.store.SetSession(ctx, target.Session.AccessToken, target.Session.RefreshToken)
	if err != nil {
		if _, removeErr := m.cache.Remove(ctx, targetEmail); removeErr != nil {
			m.log.Error().Err(removeErr).Str("email", targetEmail).Msg("failed to evict stale account")
		}
		m.notifier.Notify(NoticeWarn, fmt.Sprintf("Session for %s has expired. Please sign in again.", targetEmail))
		m.navigator.ToLogin(targetEmail)
		m.log.Info().Str("email", targetEmail).Msg("cached session rejected, routed to re-auth")
		return errors.Wrapf(ErrCachedSessionExpired, "[SwitchAccount] %s: %v", targetEmail, err)
	}

	var displaced *accounts.Entry
	if previous != nil {
		displaced = &accounts.Entry{
			User:    previous.User,
			Session: *previous,
			AddedAt: m.nowTime(),
		}
	}
	if err := m.cache.Replace(ctx, targetEmail, displaced); err != nil {
		return errors.Wrap(err, "[SwitchAccount] cache.Replace")
	}

	if err := m.prefs.SetLastActiveEmail(ctx, restored.User.Email); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist last active email")
	}

	m.log.Info().Str("email", restored.User.Email).Msg("switched active account")
	m.reloader.Reload()
	return nil
}

// applyAuthChange feeds the reducer and enforces the active-exclusion
// invariant: the active identity's email never also appears in the cache.
func (m *Manager) applyAuthChange(observedAt time.Time, event identity.AuthEvent, session *identity.Session) {
	switch event {
	case identity.EventSignedOut:
		session = nil
	case identity.EventSignedIn, identity.EventTokenRefreshed:
	default:
		return
	}

	if !m.state.apply(observedAt, session) {
		return
	}

	if session != nil {
		if removed, err := m.cache.Remove(context.Background(), session.User.Email); err != nil {
			m.log.Error().Err(err).Str("email", session.User.Email).Msg("failed to dedupe active account from cache")
		} else if removed {
			m.log.Info().Str("email", session.User.Email).Msg("evicted now-active account from cache")
		}
	}

	m.log.Debug().Str("event", string(event)).Msg("auth state applied")
}
