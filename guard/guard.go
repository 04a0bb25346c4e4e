// Package guard decides whether a protected view may be shown for the
// current session.
package guard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/restaurant-console/internal/metrics"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/users"
)

// LoginPath is where denied requests are sent
const LoginPath = "/login"

// FromParam carries the originally requested location through the login page
const FromParam = "from"

// Outcome of a guard decision
type Outcome int

const (
	Deny    Outcome = iota // Redirect to login
	Loading                // Authenticated, profile not resolved yet
	Admit                  // Render the protected view
)

func (o Outcome) String() string {
	switch o {
	case Deny:
		return "deny"
	case Loading:
		return "loading"
	case Admit:
		return "admit"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Decision is the result of Decide. Redirect and From are only set on Deny.
type Decision struct {
	Outcome  Outcome
	Redirect string // Always LoginPath on Deny
	From     string // The location that was requested
}

// Decide maps the session status onto an outcome
func Decide(state sessions.State, requested string) Decision {
	switch state.Status() {
	case sessions.StatusReady:
		return Decision{Outcome: Admit}
	case sessions.StatusPendingProfile:
		return Decision{Outcome: Loading}
	case sessions.StatusLoggedOut:
		return Decision{Outcome: Deny, Redirect: LoginPath, From: requested}
	}
	// Unknown statuses are never admitted
	return Decision{Outcome: Deny, Redirect: LoginPath, From: requested}
}

// LoginURL is the redirect target for a denied decision, remembering where
// the user was going.
func (d Decision) LoginURL() string {
	if d.From == "" || d.From == LoginPath {
		return d.Redirect
	}
	return d.Redirect + "?" + url.Values{FromParam: {d.From}}.Encode()
}

// ReturnTo reads the remembered location from a login request. Anything that
// is not a local path falls back to def.
func ReturnTo(r *http.Request, def string) string {
	from := r.URL.Query().Get(FromParam)
	if from == "" {
		from = r.PostFormValue(FromParam)
	}
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return def
	}
	return from
}

// StateSource is read once per request
type StateSource interface {
	State() sessions.State
}

type options struct {
	log         zerolog.Logger
	metrics     *metrics.Metrics
	loadingBody string
}

// Option defines a function type to modify the middleware.
type Option func(*options)

func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithLoadingBody replaces the placeholder served while the profile loads
func WithLoadingBody(body string) Option {
	return func(o *options) {
		o.loadingBody = body
	}
}

const defaultLoadingBody = "Loading...\n"

// Middleware guards next. Denied requests get a 303 to the login page,
// requests arriving while the profile loads get a 202 placeholder, and
// admitted requests reach next with the user in their context.
func Middleware(source StateSource, opts ...Option) func(http.Handler) http.Handler {
	o := options{log: zerolog.Nop(), loadingBody: defaultLoadingBody}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := source.State()
			d := Decide(state, r.URL.RequestURI())
			o.metrics.GuardDecision(d.Outcome.String())

			switch d.Outcome {
			case Admit:
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), state.User)))
			case Loading:
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte(o.loadingBody))
			default:
				o.log.Debug().Str("path", r.URL.Path).Msg("unauthenticated request redirected to login")
				http.Redirect(w, r, d.LoginURL(), http.StatusSeeOther)
			}
		})
	}
}

type contextKey string

const userKey contextKey = "user"

// WithUser stores the admitted user in ctx
func WithUser(ctx context.Context, user *users.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user admitted by Middleware, or nil
func UserFromContext(ctx context.Context) *users.User {
	u, _ := ctx.Value(userKey).(*users.User)
	return u
}
