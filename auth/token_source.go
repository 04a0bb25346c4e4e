package auth

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/jrsteele09/restaurant-console/token"
)

// EnsureFresh refreshes the access token when it expires within the refresh
// skew. Tokens without a readable expiry are used as they are.
func (s *Service) EnsureFresh(ctx context.Context) error {
	held := s.State().Tokens
	if held == nil {
		return NotAuthenticatedErr
	}
	if !token.ExpiresWithin(held.AccessToken, s.nowTime(), s.refreshSkew) {
		return nil
	}
	s.log.Debug().Msg("access token close to expiry, refreshing")
	return s.RefreshAccessToken(ctx)
}

// TokenSource exposes the session as an oauth2.TokenSource, refreshing ahead
// of expiry. ctx bounds any refresh it triggers.
func (s *Service) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, svc: s}
}

type sessionTokenSource struct {
	ctx context.Context
	svc *Service
}

func (ts *sessionTokenSource) Token() (*oauth2.Token, error) {
	if err := ts.svc.EnsureFresh(ts.ctx); err != nil && !errors.Is(err, NoRefreshTokenErr) {
		return nil, err
	}
	held := ts.svc.State().Tokens
	if held == nil {
		return nil, NotAuthenticatedErr
	}
	tok := &oauth2.Token{
		AccessToken:  held.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: held.RefreshToken,
	}
	if exp, ok := token.Expiry(held.AccessToken); ok {
		tok.Expiry = exp
	}
	return tok, nil
}
