package roles

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// TokenProvider supplies the bearer token for role lookups, normally the
// active session's access token.
type TokenProvider func() string

var _ Resolver = (*HTTPResolver)(nil)

// HTTPResolver reads roles from the platform's profile endpoint:
// GET {base}/{userID} with a bearer token, responding {"role": "..."}.
type HTTPResolver struct {
	baseURL    string
	token      TokenProvider
	httpClient *http.Client
}

func NewHTTPResolver(baseURL string, token TokenProvider, httpClient *http.Client) (*HTTPResolver, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewHTTPResolver] baseURL is required")
	}
	if token == nil {
		return nil, errors.New("[NewHTTPResolver] token provider is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPResolver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}, nil
}

func (r *HTTPResolver) Resolve(ctx context.Context, userID string) (RoleType, error) {
	endpoint := fmt.Sprintf("%s/%s", r.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return RoleUser, errors.Wrap(err, "[HTTPResolver.Resolve] build request")
	}
	if token := r.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return RoleUser, errors.Wrap(err, "[HTTPResolver.Resolve] request")
	}
	defer resp.Body.Close()

	// A user with no role record is a plain user
	if resp.StatusCode == http.StatusNotFound {
		return RoleUser, nil
	}
	if resp.StatusCode != http.StatusOK {
		return RoleUser, errors.Errorf("[HTTPResolver.Resolve] unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RoleUser, errors.Wrap(err, "[HTTPResolver.Resolve] decode")
	}

	role := RoleType(payload.Role)
	if !role.Known() {
		return RoleUser, nil
	}
	return role, nil
}
