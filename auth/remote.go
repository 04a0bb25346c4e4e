package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/jrsteele09/restaurant-console/apiclient"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/users"
)

// API is the remote half of the session lifecycle
type API interface {
	// Login exchanges credentials for a token pair
	Login(ctx context.Context, creds Credentials) (sessions.Tokens, error)

	// Profile resolves the user owning accessToken. The token is sent
	// explicitly, never read back from the session.
	Profile(ctx context.Context, accessToken string) (*users.User, error)

	// Refresh returns a new access token for refreshToken
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Doer is the part of the HTTP adapter the remote API needs
type Doer interface {
	Get(ctx context.Context, path string, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, path string, body, out any, opts ...apiclient.RequestOption) error
}

var _ API = (*RemoteAPI)(nil)

// RemoteAPI implements API over the restaurant REST endpoints
type RemoteAPI struct {
	client Doer
}

func NewRemoteAPI(client Doer) *RemoteAPI {
	return &RemoteAPI{client: client}
}

// Login returns a *CredentialError for any failed exchange
func (r *RemoteAPI) Login(ctx context.Context, creds Credentials) (sessions.Tokens, error) {
	var resp LoginResponse
	if err := r.client.Post(ctx, LoginPath, creds, &resp); err != nil {
		return sessions.Tokens{}, &CredentialError{
			StatusCode: apiclient.StatusCode(err),
			Message:    apiclient.Message(err),
			Err:        err,
		}
	}
	tokens := sessions.Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}
	if err := validateTokens(tokens); err != nil {
		return sessions.Tokens{}, &CredentialError{Err: errors.Wrap(err, "[RemoteAPI.Login] login response")}
	}
	return tokens, nil
}

func (r *RemoteAPI) Profile(ctx context.Context, accessToken string) (*users.User, error) {
	var user users.User
	if err := r.client.Get(ctx, ProfilePath, &user, apiclient.WithAccessToken(accessToken)); err != nil {
		return nil, err
	}
	if err := validateProfile(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *RemoteAPI) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var resp RefreshResponse
	if err := r.client.Post(ctx, RefreshPath, RefreshRequest{RefreshToken: refreshToken}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New("[RemoteAPI.Refresh] response has no access token")
	}
	return resp.AccessToken, nil
}
