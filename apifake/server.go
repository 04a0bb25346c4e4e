// Package apifake is an in-process restaurant API: the three auth endpoints
// and the reservation and employee endpoints. Tests and `mockapi` serve it
// over real HTTP.
package apifake

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/internal/httpx"
	"github.com/jrsteele09/restaurant-console/restaurant"
	"github.com/jrsteele09/restaurant-console/token"
	"github.com/jrsteele09/restaurant-console/users"
	fakeuserrepo "github.com/jrsteele09/restaurant-console/users/repofake"
)

const (
	defaultSecret   = "apifake-signing-secret"
	defaultTokenTTL = 15 * time.Minute
)

// UsernameTakenErr is returned by AddUser for a duplicate username
var UsernameTakenErr = errors.New("username is taken")

// Server holds everything the fake API knows. All methods are safe for
// concurrent use.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	nowTime  func() time.Time
	log      zerolog.Logger
	colour   bool

	issuer *token.Issuer
	users  users.UserRepo

	lock          sync.Mutex
	refreshTokens map[string]int64 // refresh token to user id
	reservations  map[string]*restaurant.Reservation
	order         []string // reservation ids in creation order
	calls         map[string]int
	failProfile   bool
	failRefresh   bool
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// WithTokenTTL sets the lifetime stamped on access tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

// WithLogger logs every request; colour enables terminal colours
func WithLogger(log zerolog.Logger, colour bool) Option {
	return func(s *Server) {
		s.log = log
		s.colour = colour
	}
}

func New(options ...Option) (*Server, error) {
	s := &Server{
		secret:        []byte(defaultSecret),
		tokenTTL:      defaultTokenTTL,
		nowTime:       time.Now,
		log:           zerolog.Nop(),
		users:         fakeuserrepo.NewFakeUserRepo(),
		refreshTokens: make(map[string]int64),
		reservations:  make(map[string]*restaurant.Reservation),
		calls:         make(map[string]int),
	}
	for _, opt := range options {
		opt(s)
	}
	issuer, err := token.NewIssuer(s.secret, s.tokenTTL, token.WithNowTime(s.nowTime))
	if err != nil {
		return nil, errors.Wrap(err, "[apifake.New]")
	}
	s.issuer = issuer
	return s, nil
}

// Handler routes the public auth endpoints and the bearer protected
// collaborator endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.Recover(s.log))
	r.Use(httpx.Logging(s.log, s.colour))
	r.Use(s.countCalls)

	r.Post(auth.LoginPath, s.handleLogin)
	r.With(s.requireBearer).Get(auth.ProfilePath, s.handleProfile)
	r.Post(auth.RefreshPath, s.handleRefresh)

	r.Route("/v1/private", func(private chi.Router) {
		private.Use(s.requireBearer)

		private.Get("/reservations", s.handleListReservations)
		private.Post("/reservations", s.handleCreateReservation)
		private.Patch("/reservations/{id}/status", s.handleUpdateReservationStatus)
		private.Delete("/reservations/{id}", s.handleDeleteReservation)

		private.Get("/users", s.handleListEmployees)
		private.With(requireRoles(users.RoleAdmin, users.RoleManager)).Post("/users", s.handleCreateEmployee)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "route not found")
	})
	return r
}

// AddUser registers an account that can log in with password
func (s *Server) AddUser(username, password string, role users.RoleType) (*users.Account, error) {
	return s.addAccount(&users.Account{User: users.User{Username: username, Role: role}}, password)
}

func (s *Server) addAccount(account *users.Account, password string) (*users.Account, error) {
	if !account.Role.Valid() {
		return nil, errors.Errorf("[Server.AddUser] unknown role %q", account.Role)
	}
	if _, err := s.users.GetByUsername(account.Username); err == nil {
		return nil, errors.Wrapf(UsernameTakenErr, "[Server.AddUser] %q", account.Username)
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrap(err, "[Server.AddUser] hash password")
	}
	account.PasswordHash = hash
	if err := s.users.Upsert(account); err != nil {
		return nil, errors.Wrap(err, "[Server.AddUser]")
	}
	return account, nil
}

// SetFailProfile makes the profile endpoint answer 500
func (s *Server) SetFailProfile(fail bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failProfile = fail
}

// SetFailRefresh makes the refresh endpoint answer 401
func (s *Server) SetFailRefresh(fail bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.failRefresh = fail
}

// RevokeRefreshTokens forgets every issued refresh token
func (s *Server) RevokeRefreshTokens() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshTokens = make(map[string]int64)
}

// Calls returns how many requests reached path
func (s *Server) Calls(path string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls[path]
}

func (s *Server) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		s.calls[r.URL.Path]++
		s.lock.Unlock()
		next.ServeHTTP(w, r)
	})
}
