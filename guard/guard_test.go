package guard_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/restaurant-console/guard"
	"github.com/jrsteele09/restaurant-console/internal/metrics"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/users"
)

var (
	tokensAR = &sessions.Tokens{AccessToken: "a", RefreshToken: "r"}
	admin    = &users.User{ID: 1, Username: "admin", Role: users.RoleAdmin}

	loggedOut = sessions.State{IsAuthenticated: false}
	pending   = sessions.State{IsAuthenticated: true, Tokens: tokensAR}
	ready     = sessions.State{IsAuthenticated: true, Tokens: tokensAR, User: admin}
)

type fixedState sessions.State

func (f fixedState) State() sessions.State {
	return sessions.State(f)
}

func TestDecide_Scenarios(t *testing.T) {
	t.Run("not authenticated is denied to login", func(t *testing.T) {
		d := guard.Decide(loggedOut, "/reservations")
		require.Equal(t, guard.Deny, d.Outcome)
		require.Equal(t, "/login", d.Redirect)
		require.Equal(t, "/reservations", d.From)
	})

	t.Run("authenticated without profile is loading", func(t *testing.T) {
		d := guard.Decide(pending, "/reservations")
		require.Equal(t, guard.Loading, d.Outcome)
		require.Empty(t, d.Redirect)
	})

	t.Run("authenticated with profile is admitted", func(t *testing.T) {
		d := guard.Decide(ready, "/reservations")
		require.Equal(t, guard.Admit, d.Outcome)
		require.Empty(t, d.Redirect)
	})

	t.Run("tokens without the flag are denied", func(t *testing.T) {
		d := guard.Decide(sessions.State{Tokens: tokensAR, User: admin}, "/employees")
		require.Equal(t, guard.Deny, d.Outcome)
	})
}

func TestDecision_LoginURL(t *testing.T) {
	require.Equal(t, "/login?from=%2Freservations%3Fstatus%3DPENDING",
		guard.Decide(loggedOut, "/reservations?status=PENDING").LoginURL())
	require.Equal(t, "/login", guard.Decide(loggedOut, "").LoginURL())
	require.Equal(t, "/login", guard.Decide(loggedOut, "/login").LoginURL())
}

func TestReturnTo(t *testing.T) {
	tests := map[string]string{
		"/login?from=%2Femployees":          "/employees",
		"/login?from=https%3A%2F%2Fevil.io": "/reservations",
		"/login?from=%2F%2Fevil.io":         "/reservations",
		"/login":                            "/reservations",
	}
	for target, want := range tests {
		t.Run(target, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, target, nil)
			require.Equal(t, want, guard.ReturnTo(r, "/reservations"))
		})
	}

	form := url.Values{"from": {"/employees"}}
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.Equal(t, "/employees", guard.ReturnTo(r, "/"))
}

func TestMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	var seen *users.User
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = guard.UserFromContext(r.Context())
		_, _ = w.Write([]byte("reservations"))
	})

	serve := func(state sessions.State) *httptest.ResponseRecorder {
		h := guard.Middleware(fixedState(state), guard.WithMetrics(m))(protected)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reservations", nil))
		return rec
	}

	t.Run("deny", func(t *testing.T) {
		rec := serve(loggedOut)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/login?from=%2Freservations", rec.Header().Get("Location"))
	})

	t.Run("loading", func(t *testing.T) {
		rec := serve(pending)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Empty(t, rec.Header().Get("Location"))
		body, _ := io.ReadAll(rec.Body)
		require.Equal(t, "Loading...\n", string(body))
	})

	t.Run("admit", func(t *testing.T) {
		rec := serve(ready)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "reservations", rec.Body.String())
		require.Equal(t, admin, seen)
	})

	require.Equal(t, float64(1), testutil.ToFloat64(m.GuardDecisions.WithLabelValues("deny")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.GuardDecisions.WithLabelValues("loading")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.GuardDecisions.WithLabelValues("admit")))
}

func TestOutcome_String(t *testing.T) {
	require.Equal(t, "deny", guard.Deny.String())
	require.Equal(t, "loading", guard.Loading.String())
	require.Equal(t, "admit", guard.Admit.String())
}
