// Package accounts holds the set of previously-authenticated identities
// cached on this device, plus the login-form preferences. The active
// identity is never duplicated here - it lives in the identity store.
package accounts

import (
	"strings"
	"time"

	"github.com/campusmedia/go-staff-console/identity"
)

// Entry is one previously-authenticated identity cached on this device.
// Created when an operator parks an account to sign in as another; removed
// when its cached session is found invalid during a switch attempt.
type Entry struct {
	User    identity.User    `json:"user"`
	Session identity.Session `json:"session"`
	AddedAt time.Time        `json:"added_at"`
}

// Email returns the entry's canonical email.
func (e Entry) Email() string {
	return NormalizeEmail(e.User.Email)
}

// NormalizeEmail is the canonical form used for the per-email dedup
// invariant.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Storage keys for the console's local namespace.
const (
	AccountsKey        = "available_accounts"
	LastActiveEmailKey = "last_active_email"
	RememberedEmailKey = "remembered_email"
)
