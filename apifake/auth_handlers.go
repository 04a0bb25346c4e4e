package apifake

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/internal/httpx"
	"github.com/jrsteele09/restaurant-console/token"
	"github.com/jrsteele09/restaurant-console/users"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(creds.Username) == "" || creds.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	account, err := s.users.GetByUsername(strings.TrimSpace(creds.Username))
	if err != nil || !users.CheckPasswordHash(creds.Password, account.PasswordHash) {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	resp, err := s.issuePair(account)
	if err != nil {
		s.log.Error().Err(err).Msg("issuing tokens failed")
		httpx.WriteError(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	fail := s.failProfile
	s.lock.Unlock()
	if fail {
		httpx.WriteError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, accountFrom(r.Context()).User)
}

// handleRefresh issues a new access token. The refresh token is not rotated.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req auth.RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "refreshToken is required")
		return
	}

	s.lock.Lock()
	fail := s.failRefresh
	userID, known := s.refreshTokens[req.RefreshToken]
	s.lock.Unlock()
	if fail || !known {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	account, err := s.users.GetByID(userID)
	if err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	access, err := s.issuer.Issue(account.ID, account.Username, string(account.Role))
	if err != nil {
		s.log.Error().Err(err).Msg("issuing access token failed")
		httpx.WriteError(w, http.StatusInternalServerError, "could not issue tokens")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, auth.RefreshResponse{AccessToken: access})
}

func (s *Server) issuePair(account *users.Account) (*auth.LoginResponse, error) {
	access, err := s.issuer.Issue(account.ID, account.Username, string(account.Role))
	if err != nil {
		return nil, errors.Wrap(err, "[Server.issuePair]")
	}
	refresh, err := token.NewRefreshToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Server.issuePair]")
	}
	s.lock.Lock()
	s.refreshTokens[refresh] = account.ID
	s.lock.Unlock()
	return &auth.LoginResponse{AccessToken: access, RefreshToken: refresh}, nil
}
