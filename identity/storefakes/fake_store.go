package storefakes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/campusmedia/go-staff-console/identity"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var _ identity.Store = (*FakeStore)(nil)

// FakeStore is an in-memory identity platform for tests: seeded users,
// issued refresh tokens, a revocation set and an active session slot.
type FakeStore struct {
	lock sync.Mutex

	passwords map[string]string           // email -> password
	issued    map[string]identity.Session // refresh token -> session as issued
	revoked   map[string]bool             // refresh token -> revoked
	active    *identity.Session
	seq       int

	getSessionErr error
	signOutCalls  int

	subsLock sync.RWMutex
	subs     map[string]func(identity.AuthEvent, *identity.Session)
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		passwords: make(map[string]string),
		issued:    make(map[string]identity.Session),
		revoked:   make(map[string]bool),
		subs:      make(map[string]func(identity.AuthEvent, *identity.Session)),
	}
}

// SeedUser registers an email/password pair that SignInWithPassword accepts.
func (f *FakeStore) SeedUser(email, password string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.passwords[email] = password
}

// IssueSession mints a valid session for email without going through
// SignInWithPassword, for pre-populating account caches in tests.
func (f *FakeStore) IssueSession(email string) identity.Session {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.issueLocked(email)
}

// Activate makes a previously issued session the active one, bypassing
// credential checks.
func (f *FakeStore) Activate(session identity.Session) {
	f.lock.Lock()
	f.active = &session
	f.lock.Unlock()
	f.emit(identity.EventSignedIn, &session)
}

// Revoke invalidates a refresh token so SetSession rejects it.
func (f *FakeStore) Revoke(refreshToken string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.revoked[refreshToken] = true
}

// FailGetSession makes the next GetSession calls return err.
func (f *FakeStore) FailGetSession(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.getSessionErr = err
}

// ActiveEmail returns the email of the active session, or "".
func (f *FakeStore) ActiveEmail() string {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.active == nil {
		return ""
	}
	return f.active.User.Email
}

// ActiveSession returns a copy of the active session, or nil.
func (f *FakeStore) ActiveSession() *identity.Session {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.active.Clone()
}

// SignOutCalls reports how many times SignOut was invoked.
func (f *FakeStore) SignOutCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.signOutCalls
}

func (f *FakeStore) SignInWithPassword(_ context.Context, email, password string) (*identity.Session, error) {
	f.lock.Lock()
	stored, ok := f.passwords[email]
	if !ok || stored != password {
		f.lock.Unlock()
		return nil, errors.Wrapf(identity.ErrInvalidCredentials, "[FakeStore.SignInWithPassword] %s", email)
	}
	session := f.issueLocked(email)
	f.active = &session
	f.lock.Unlock()

	f.emit(identity.EventSignedIn, &session)
	return session.Clone(), nil
}

func (f *FakeStore) SignUp(ctx context.Context, email, password string) (*identity.Session, error) {
	f.lock.Lock()
	f.passwords[email] = password
	f.lock.Unlock()
	return f.SignInWithPassword(ctx, email, password)
}

func (f *FakeStore) SignOut(_ context.Context, scope identity.SignOutScope) error {
	f.lock.Lock()
	f.signOutCalls++
	active := f.active
	f.active = nil
	if active != nil && scope == identity.SignOutGlobal {
		f.revoked[active.RefreshToken] = true
	}
	f.lock.Unlock()

	if active != nil {
		f.emit(identity.EventSignedOut, nil)
	}
	return nil
}

func (f *FakeStore) SetSession(_ context.Context, _, refreshToken string) (*identity.Session, error) {
	f.lock.Lock()
	issued, ok := f.issued[refreshToken]
	if !ok || f.revoked[refreshToken] {
		f.lock.Unlock()
		return nil, errors.Wrap(identity.ErrSessionInvalid, "[FakeStore.SetSession] refresh token rejected")
	}
	session := issued
	f.active = &session
	f.lock.Unlock()

	f.emit(identity.EventSignedIn, &session)
	return session.Clone(), nil
}

func (f *FakeStore) GetSession(context.Context) (*identity.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	return f.active.Clone(), nil
}

func (f *FakeStore) OnAuthStateChange(fn func(identity.AuthEvent, *identity.Session)) *identity.Subscription {
	id := uuid.New().String()

	f.subsLock.Lock()
	f.subs[id] = fn
	f.subsLock.Unlock()

	return identity.NewSubscription(id, func() {
		f.subsLock.Lock()
		delete(f.subs, id)
		f.subsLock.Unlock()
	})
}

func (f *FakeStore) issueLocked(email string) identity.Session {
	f.seq++
	session := identity.Session{
		AccessToken:  fmt.Sprintf("access-%s-%d", email, f.seq),
		RefreshToken: fmt.Sprintf("refresh-%s-%d", email, f.seq),
		TokenType:    "Bearer",
		IssuedAt:     time.Now(),
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         identity.User{ID: "user-" + email, Email: email},
	}
	f.issued[session.RefreshToken] = session
	return session
}

func (f *FakeStore) emit(event identity.AuthEvent, session *identity.Session) {
	f.subsLock.RLock()
	fns := make([]func(identity.AuthEvent, *identity.Session), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.subsLock.RUnlock()

	for _, fn := range fns {
		fn(event, session.Clone())
	}
}
