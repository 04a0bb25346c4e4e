// Package webconsole serves the console over local HTTP: a login form, the
// guarded reservation and employee views, and the metrics endpoint.
package webconsole

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/guard"
	"github.com/jrsteele09/restaurant-console/internal/httpx"
	"github.com/jrsteele09/restaurant-console/internal/metrics"
	"github.com/jrsteele09/restaurant-console/restaurant"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/users"
)

// DefaultLanding is where the root and a successful login lead
const DefaultLanding = "/reservations"

// Session is the part of the session service the console drives
type Session interface {
	State() sessions.State
	SignIn(ctx context.Context, creds auth.Credentials) error
	Logout() error
	EnsureFresh(ctx context.Context) error
}

// Restaurant is the collaborator API behind the guarded views
type Restaurant interface {
	Reservations(ctx context.Context) ([]restaurant.Reservation, error)
	Employees(ctx context.Context) ([]restaurant.Employee, error)
}

type Server struct {
	session    Session
	restaurant Restaurant
	log        zerolog.Logger
	colour     bool
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithLogger logs every request; colour enables terminal colours
func WithLogger(log zerolog.Logger, colour bool) Option {
	return func(s *Server) {
		s.log = log
		s.colour = colour
	}
}

// WithMetrics records guard decisions in m and serves reg on /metrics
func WithMetrics(m *metrics.Metrics, reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = m
		s.registry = reg
	}
}

func New(session Session, rest Restaurant, options ...Option) *Server {
	s := &Server{session: session, restaurant: rest, log: zerolog.Nop()}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.Recover(s.log))
	r.Use(httpx.Logging(s.log, s.colour))
	r.Use(httpx.FrameSecurity)

	r.Get("/", s.handleRoot)
	r.Get(guard.LoginPath, s.handleLoginPage)
	r.Post(guard.LoginPath, s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Group(func(protected chi.Router) {
		protected.Use(guard.Middleware(s.session, guard.WithLogger(s.log), guard.WithMetrics(s.metrics)))
		protected.Get("/reservations", s.handleReservations)
		protected.Get("/orders", s.handleReservations)
		protected.Get("/employees", s.handleEmployees)
		protected.Get("/me", s.handleMe)
	})

	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "page not found")
	})
	return r
}

func userOf(r *http.Request) *users.User {
	return guard.UserFromContext(r.Context())
}
