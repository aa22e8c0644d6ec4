package identity

import (
	"bytes"
	"context"
	"encoding/json"
	goerrors "errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// ClientConfig holds the connection details for the hosted identity platform.
type ClientConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Client implements Store against an OIDC provider that supports the
// password and refresh_token grants. Endpoints come from discovery.
type Client struct {
	provider      *oidc.Provider
	oauthCfg      *oauth2.Config
	revocationURL string
	signupURL     string
	httpClient    *http.Client
	nowTime       func() time.Time

	lock   sync.RWMutex
	active *Session

	subsLock sync.RWMutex
	subs     map[string]func(AuthEvent, *Session)
}

// ClientOption modifies a Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClientNowTime sets the now time function (primarily for testing).
func WithClientNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// NewClient discovers the provider's endpoints and returns a ready client.
func NewClient(ctx context.Context, cfg ClientConfig, options ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.IssuerURL) == "" {
		return nil, errors.New("[NewClient] IssuerURL is required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("[NewClient] ClientID is required")
	}

	c := &Client{
		httpClient: http.DefaultClient,
		nowTime:    time.Now,
		subs:       make(map[string]func(AuthEvent, *Session)),
	}
	for _, opt := range options {
		opt(c)
	}

	ctx = oidc.ClientContext(ctx, c.httpClient)
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewClient] provider discovery")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", "offline_access"}
	}

	// Discovery metadata beyond what go-oidc surfaces directly.
	var extra struct {
		RevocationEndpoint   string `json:"revocation_endpoint"`
		RegistrationEndpoint string `json:"registration_endpoint"`
	}
	_ = provider.Claims(&extra)

	c.provider = provider
	c.revocationURL = extra.RevocationEndpoint
	c.signupURL = extra.RegistrationEndpoint
	c.oauthCfg = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return c, nil
}

var _ Store = (*Client)(nil)

// SignInWithPassword performs the password grant and activates the session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	tok, err := c.oauthCfg.PasswordCredentialsToken(c.requestContext(ctx), email, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if goerrors.As(err, &re) {
			return nil, errors.Wrapf(ErrInvalidCredentials, "[SignInWithPassword] %s", re.ErrorCode)
		}
		return nil, errors.Wrap(err, "[SignInWithPassword] password grant")
	}

	session, err := c.sessionFromToken(ctx, tok)
	if err != nil {
		return nil, errors.Wrap(err, "[SignInWithPassword] sessionFromToken")
	}

	c.setActive(session)
	c.emit(EventSignedIn, session)
	return session.Clone(), nil
}

// SignUp registers the account at the provider's registration endpoint and
// then signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	if c.signupURL == "" {
		return nil, errors.Wrap(ErrSignUpUnsupported, "[SignUp] no registration endpoint in discovery")
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp] marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.signupURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp] build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[SignUp] registration request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("[SignUp] registration failed with status %d", resp.StatusCode)
	}

	return c.SignInWithPassword(ctx, email, password)
}

// SignOut clears the active session. SignOutGlobal also revokes the refresh
// token; SignOutLocal leaves it valid so a cached copy can restore the
// session later. Revocation is best effort: the local session is discarded
// either way.
func (c *Client) SignOut(ctx context.Context, scope SignOutScope) error {
	c.lock.Lock()
	active := c.active
	c.active = nil
	c.lock.Unlock()

	if active == nil {
		return nil
	}

	if scope == SignOutGlobal {
		c.revokeToken(ctx, active.RefreshToken)
	}
	c.emit(EventSignedOut, nil)
	return nil
}

// SetSession presents a cached token pair as the new active credential. The
// pair is validated with a refresh round trip so a revoked or expired
// refresh token is rejected here, leaving the current active session alone.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error) {
	seed := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		// Forces TokenSource to hit the refresh grant.
		Expiry: c.nowTime().Add(-time.Minute),
	}

	tok, err := c.oauthCfg.TokenSource(c.requestContext(ctx), seed).Token()
	if err != nil {
		return nil, errors.Wrapf(ErrSessionInvalid, "[SetSession] refresh grant: %v", err)
	}

	session, err := c.sessionFromToken(ctx, tok)
	if err != nil {
		return nil, errors.Wrap(err, "[SetSession] sessionFromToken")
	}

	c.setActive(session)
	c.emit(EventSignedIn, session)
	return session.Clone(), nil
}

// GetSession returns the active session, refreshing it if the access token
// has expired. A failed refresh clears the active session.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.lock.RLock()
	active := c.active
	c.lock.RUnlock()

	if active == nil {
		return nil, nil
	}
	if !active.Expired(c.nowTime()) {
		return active.Clone(), nil
	}

	seed := &oauth2.Token{
		AccessToken:  active.AccessToken,
		RefreshToken: active.RefreshToken,
		Expiry:       active.ExpiresAt,
	}
	tok, err := c.oauthCfg.TokenSource(c.requestContext(ctx), seed).Token()
	if err != nil {
		c.setActive(nil)
		c.emit(EventSignedOut, nil)
		return nil, errors.Wrapf(ErrSessionInvalid, "[GetSession] refresh grant: %v", err)
	}

	session, err := c.sessionFromToken(ctx, tok)
	if err != nil {
		return nil, errors.Wrap(err, "[GetSession] sessionFromToken")
	}

	c.setActive(session)
	c.emit(EventTokenRefreshed, session)
	return session.Clone(), nil
}

// OnAuthStateChange registers a callback for session changes.
func (c *Client) OnAuthStateChange(fn func(event AuthEvent, session *Session)) *Subscription {
	id := uuid.New().String()

	c.subsLock.Lock()
	c.subs[id] = fn
	c.subsLock.Unlock()

	return &Subscription{
		ID: id,
		unsubscribe: func() {
			c.subsLock.Lock()
			delete(c.subs, id)
			c.subsLock.Unlock()
		},
	}
}

func (c *Client) sessionFromToken(ctx context.Context, tok *oauth2.Token) (*Session, error) {
	user, err := c.userForToken(ctx, tok)
	if err != nil {
		return nil, errors.Wrap(err, "userForToken")
	}

	return &Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		IssuedAt:     c.nowTime(),
		ExpiresAt:    tok.Expiry,
		User:         user,
	}, nil
}

// userForToken resolves the user via the UserInfo endpoint, falling back to
// unverified access token claims when the endpoint is unavailable.
func (c *Client) userForToken(ctx context.Context, tok *oauth2.Token) (User, error) {
	info, err := c.provider.UserInfo(c.requestContext(ctx), oauth2.StaticTokenSource(tok))
	if err == nil {
		return User{ID: info.Subject, Email: info.Email}, nil
	}

	user, claimsErr := UserFromToken(tok.AccessToken)
	if claimsErr != nil {
		return User{}, errors.Wrapf(claimsErr, "userinfo also failed: %v", err)
	}
	return user, nil
}

func (c *Client) revokeToken(ctx context.Context, refreshToken string) {
	if c.revocationURL == "" || refreshToken == "" {
		return
	}

	form := url.Values{}
	form.Set("token", refreshToken)
	form.Set("token_type_hint", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.revocationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(url.QueryEscape(c.oauthCfg.ClientID), url.QueryEscape(c.oauthCfg.ClientSecret))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

func (c *Client) setActive(session *Session) {
	c.lock.Lock()
	c.active = session
	c.lock.Unlock()
}

func (c *Client) emit(event AuthEvent, session *Session) {
	c.subsLock.RLock()
	fns := make([]func(AuthEvent, *Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsLock.RUnlock()

	for _, fn := range fns {
		fn(event, session.Clone())
	}
}

// requestContext routes oauth2's internal HTTP through the configured client.
func (c *Client) requestContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
