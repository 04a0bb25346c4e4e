package webconsole

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/restaurant-console/apiclient"
	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/guard"
	"github.com/jrsteele09/restaurant-console/internal/httpx"
	"github.com/jrsteele09/restaurant-console/internal/validation"
	"github.com/jrsteele09/restaurant-console/restaurant"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/users"
)

const profileFailedMsg = "Signed in, but your profile could not be loaded. Please try again."

type loginResult struct {
	User     *users.User `json:"user"`
	Redirect string      `json:"redirect"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if s.session.State().IsAuthenticated {
		redirect(w, r, DefaultLanding)
		return
	}
	redirect(w, r, guard.LoginPath)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.session.State().Status() == sessions.StatusReady {
		redirect(w, r, guard.ReturnTo(r, DefaultLanding))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	q := r.URL.Query()
	if err := loginPage.Execute(w, loginView{
		Error:    q.Get("error"),
		From:     guard.ReturnTo(r, ""),
		Username: q.Get("username"),
	}); err != nil {
		s.log.Error().Err(err).Msg("rendering login page")
	}
}

// handleLogin accepts a form post or a JSON body. Forms are answered with
// redirects, JSON with JSON.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	jsonBody := isJSON(r)
	var creds auth.Credentials
	if jsonBody {
		if err := httpx.DecodeJSON(r, &creds); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		creds.Username = r.PostFormValue("username")
		creds.Password = r.PostFormValue("password")
	}
	from := guard.ReturnTo(r, "")
	target := from
	if target == "" {
		target = DefaultLanding
	}

	err := s.session.SignIn(r.Context(), creds)
	var ce *auth.CredentialError
	switch {
	case errors.As(err, &ce):
		s.log.Info().Str("username", creds.Username).Int("status", ce.StatusCode).Msg("login rejected")
		if jsonBody {
			httpx.WriteError(w, credentialStatus(ce), ce.UserMessage())
			return
		}
		redirectWithError(w, r, guard.LoginPath, ce.UserMessage(), from)
		return
	case err != nil:
		s.log.Error().Err(err).Msg("login failed")
		if jsonBody {
			httpx.WriteError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		redirectWithError(w, r, guard.LoginPath, "Login failed", from)
		return
	}

	state := s.session.State()
	if !state.IsAuthenticated {
		if jsonBody {
			httpx.WriteError(w, http.StatusBadGateway, profileFailedMsg)
			return
		}
		redirectWithError(w, r, guard.LoginPath, profileFailedMsg, from)
		return
	}
	if jsonBody {
		httpx.WriteJSON(w, http.StatusOK, loginResult{User: state.User, Redirect: target})
		return
	}
	redirect(w, r, target)
}

// handleLogout always ends at the login page; the in-memory session is
// cleared even when persisting the logout fails.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Logout(); err != nil {
		s.log.Error().Err(err).Msg("persisting logout failed")
	}
	redirect(w, r, guard.LoginPath)
}

// handleReservations lists reservations narrowed by the search, status, sort
// and asc query parameters. Lists are newest first unless asc=true.
func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request) {
	if !s.ensureFresh(w, r) {
		return
	}
	list, err := s.restaurant.Reservations(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	q := r.URL.Query()
	query := restaurant.Query{
		Search:    q.Get("search"),
		Status:    q.Get("status"),
		SortKey:   restaurant.SortKey(q.Get("sort")),
		Ascending: q.Get("asc") == "true",
	}
	if query.Status != "" && !strings.EqualFold(query.Status, restaurant.AllStatuses) {
		if _, err := restaurant.ParseStatus(query.Status); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, query.Apply(list))
}

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	if !s.ensureFresh(w, r) {
		return
	}
	list, err := s.restaurant.Employees(r.Context())
	if err != nil {
		s.writeAPIError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, userOf(r))
}

// ensureFresh refreshes an expiring access token before an API call. A
// failed refresh has logged the session out, so the request goes to login.
// An expiring token with no refresh token ends the session the same way.
func (s *Server) ensureFresh(w http.ResponseWriter, r *http.Request) bool {
	err := s.session.EnsureFresh(r.Context())
	if err == nil {
		return true
	}
	if errors.Is(err, auth.NoRefreshTokenErr) {
		if logoutErr := s.session.Logout(); logoutErr != nil {
			s.log.Error().Err(logoutErr).Msg("persisting logout of expired session")
		}
	}
	var re *auth.RefreshError
	if errors.As(err, &re) || errors.Is(err, auth.NotAuthenticatedErr) || errors.Is(err, auth.NoRefreshTokenErr) {
		s.log.Info().Err(err).Msg("session ended during refresh")
		d := guard.Decide(s.session.State(), r.URL.RequestURI())
		redirect(w, r, d.LoginURL())
		return false
	}
	s.log.Error().Err(err).Msg("refreshing access token")
	httpx.WriteError(w, http.StatusInternalServerError, "could not refresh the session")
	return false
}

// writeAPIError passes API rejections through. A 401 is not retried.
func (s *Server) writeAPIError(w http.ResponseWriter, err error) {
	status := apiclient.StatusCode(err)
	if status == 0 {
		s.log.Error().Err(err).Msg("restaurant API unreachable")
		httpx.WriteError(w, http.StatusBadGateway, "restaurant API unreachable")
		return
	}
	msg := apiclient.Message(err)
	if msg == "" {
		msg = http.StatusText(status)
	}
	httpx.WriteError(w, status, msg)
}

// credentialStatus maps a rejected login onto the console's answer: bad
// input is a 400, no answer from the API a 502, anything else a 401.
func credentialStatus(ce *auth.CredentialError) int {
	var ve *validation.Error
	switch {
	case ce.StatusCode == http.StatusBadRequest, errors.As(ce.Err, &ve):
		return http.StatusBadRequest
	case ce.StatusCode == 0:
		return http.StatusBadGateway
	}
	return http.StatusUnauthorized
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
