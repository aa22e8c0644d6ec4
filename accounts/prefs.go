package accounts

import (
	"context"

	"github.com/campusmedia/go-staff-console/storage"
	"github.com/pkg/errors"
)

// LoginPrefs persists the login-form preferences: the last active email
// (always recorded on successful sign-in) and the remember-me email
// (recorded only on request). Both are independent of the account cache.
type LoginPrefs struct {
	kv storage.KV
}

func NewLoginPrefs(kv storage.KV) (*LoginPrefs, error) {
	if kv == nil {
		return nil, errors.New("[NewLoginPrefs] kv store is required")
	}
	return &LoginPrefs{kv: kv}, nil
}

func (p *LoginPrefs) LastActiveEmail(ctx context.Context) (string, error) {
	raw, ok, err := p.kv.Get(ctx, LastActiveEmailKey)
	if err != nil {
		return "", errors.Wrap(err, "[LoginPrefs.LastActiveEmail] load")
	}
	if !ok {
		return "", nil
	}
	return string(raw), nil
}

func (p *LoginPrefs) SetLastActiveEmail(ctx context.Context, email string) error {
	err := p.kv.Set(ctx, LastActiveEmailKey, []byte(NormalizeEmail(email)))
	return errors.Wrap(err, "[LoginPrefs.SetLastActiveEmail] store")
}

func (p *LoginPrefs) RememberedEmail(ctx context.Context) (string, bool, error) {
	raw, ok, err := p.kv.Get(ctx, RememberedEmailKey)
	if err != nil {
		return "", false, errors.Wrap(err, "[LoginPrefs.RememberedEmail] load")
	}
	if !ok {
		return "", false, nil
	}
	return string(raw), true, nil
}

func (p *LoginPrefs) SetRememberedEmail(ctx context.Context, email string) error {
	err := p.kv.Set(ctx, RememberedEmailKey, []byte(NormalizeEmail(email)))
	return errors.Wrap(err, "[LoginPrefs.SetRememberedEmail] store")
}

func (p *LoginPrefs) ClearRememberedEmail(ctx context.Context) error {
	err := p.kv.Delete(ctx, RememberedEmailKey)
	return errors.Wrap(err, "[LoginPrefs.ClearRememberedEmail] delete")
}
