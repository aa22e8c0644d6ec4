package rolefakes

import (
	"context"
	"sync"

	"github.com/campusmedia/go-staff-console/roles"
)

var _ roles.Resolver = (*FakeResolver)(nil)

// FakeResolver maps user ids to roles in memory; unknown users resolve to
// plain user.
type FakeResolver struct {
	lock  sync.RWMutex
	byID  map[string]roles.RoleType
	fails error
}

func NewFakeResolver() *FakeResolver {
	return &FakeResolver{byID: make(map[string]roles.RoleType)}
}

func (f *FakeResolver) SetRole(userID string, role roles.RoleType) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.byID[userID] = role
}

func (f *FakeResolver) Fail(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.fails = err
}

func (f *FakeResolver) Resolve(_ context.Context, userID string) (roles.RoleType, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	if f.fails != nil {
		return roles.RoleUser, f.fails
	}
	if role, ok := f.byID[userID]; ok {
		return role, nil
	}
	return roles.RoleUser, nil
}
