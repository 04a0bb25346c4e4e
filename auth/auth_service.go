package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/restaurant-console/internal/metrics"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/users"
)

const (
	defaultProfileTimeout = 10 * time.Second
	defaultPersistTimeout = 5 * time.Second
	defaultRefreshSkew    = 30 * time.Second
)

// Service owns the console session. It is the only writer of the session
// state; everything else observes it through State, Status, AccessToken or
// Subscribe.
//
// Every mutation is persisted before it becomes visible in memory, with the
// exception of Logout, which always clears memory. Mutations are serialized;
// remote calls never run while the lock is held.
type Service struct {
	api  API
	repo sessions.Repo

	log            zerolog.Logger
	metrics        *metrics.Metrics
	profileTimeout time.Duration
	persistTimeout time.Duration
	refreshSkew    time.Duration
	nowTime        func() time.Time

	lock      sync.RWMutex
	state     sessions.State
	hydrating *sessions.Tokens // Session whose profile fetch is in flight
	subs      map[int]chan sessions.State
	nextSubID int
	disposed  bool
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

func WithLogger(log zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = log
	}
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithProfileTimeout bounds every profile fetch. A timeout counts as a failed
// fetch.
func WithProfileTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.profileTimeout = timeout
		}
	}
}

// WithPersistTimeout bounds each save to the session repo
func WithPersistTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.persistTimeout = timeout
		}
	}
}

// WithRefreshSkew sets how close to expiry EnsureFresh refreshes
func WithRefreshSkew(skew time.Duration) ServiceOption {
	return func(s *Service) {
		if skew >= 0 {
			s.refreshSkew = skew
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// NewService initializes a new Service with required dependencies. The
// session is logged out until Init loads the persisted state.
func NewService(api API, repo sessions.Repo, options ...ServiceOption) (*Service, error) {
	if api == nil {
		return nil, errors.New("[NewService] API is required")
	}
	if repo == nil {
		return nil, errors.New("[NewService] session repo is required")
	}

	s := &Service{
		api:            api,
		repo:           repo,
		log:            zerolog.Nop(),
		profileTimeout: defaultProfileTimeout,
		persistTimeout: defaultPersistTimeout,
		refreshSkew:    defaultRefreshSkew,
		nowTime:        time.Now,
		subs:           make(map[int]chan sessions.State),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Init loads the persisted session. A missing record is a logged out
// session; so is a corrupt record or one that breaks the session
// invariants, which is overwritten when possible.
func (s *Service) Init(ctx context.Context) error {
	loaded, err := s.repo.Load(ctx)
	switch {
	case err == nil:
	case errors.Is(err, sessions.ErrNotFound):
		loaded = sessions.State{}
	case errors.Is(err, sessions.ErrCorrupt), errors.Is(err, sessions.ErrInvariant):
		s.log.Warn().Err(err).Msg("discarding persisted session")
		s.lock.Lock()
		defer s.lock.Unlock()
		_ = s.clear(ctx) // logged by clear; the session is usable either way
		return nil
	default:
		return errors.Wrap(err, "[Service.Init] load session")
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.state = loaded.Clone()
	s.log.Debug().Str("status", loaded.Status().String()).Msg("session loaded")
	s.publish()
	return nil
}

// Dispose closes every subscription. The service must not be used after.
func (s *Service) Dispose() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// State returns a copy of the current session
func (s *Service) State() sessions.State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.Clone()
}

func (s *Service) Status() sessions.Status {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state.Status()
}

// AccessToken returns the held access token or "". It satisfies
// apiclient.TokenProvider.
func (s *Service) AccessToken() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.state.Tokens == nil {
		return ""
	}
	return s.state.Tokens.AccessToken
}

// User returns the resolved profile, or nil
func (s *Service) User() *users.User {
	return s.State().User
}

// Subscribe returns a channel receiving the session after each change.
// Slow readers only see the latest state. The channel is closed by cancel or
// Dispose.
func (s *Service) Subscribe() (<-chan sessions.State, func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	ch := make(chan sessions.State, 1)
	if s.disposed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.lock.Lock()
			defer s.lock.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
}

// Login commits tokens as an authenticated session, then resolves the
// profile with the new access token. A failed profile fetch logs the session
// out again and is not returned; only persistence failures and ctx
// cancellation are.
func (s *Service) Login(ctx context.Context, tokens sessions.Tokens) error {
	if err := validateTokens(tokens); err != nil {
		return errors.Wrap(err, "[Service.Login]")
	}

	s.lock.Lock()
	err := s.commit(ctx, sessions.State{Tokens: &tokens, IsAuthenticated: true}, "login")
	if err == nil {
		held := tokens
		s.hydrating = &held
	}
	s.lock.Unlock()
	if err != nil {
		return err
	}
	user, err := s.fetchProfile(ctx, tokens.AccessToken)
	cancelled := err != nil && ctx.Err() != nil
	defer s.endHydration(tokens, cancelled)

	if err != nil {
		if cancelled {
			return ctx.Err()
		}
		s.log.Warn().Err(err).Msg("profile fetch after login failed, logging out")
		s.metrics.HydrationResult("failed")
		return s.logoutSession(ctx, tokens)
	}
	s.metrics.HydrationResult("ok")
	return s.applyProfile(ctx, tokens, user)
}

// SignIn exchanges credentials for tokens and logs in with them. A rejected
// exchange returns *CredentialError and leaves the session untouched.
func (s *Service) SignIn(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return &CredentialError{Message: "Username and password are required", Err: err}
	}
	tokens, err := s.api.Login(ctx, creds)
	if err != nil {
		var ce *CredentialError
		if errors.As(err, &ce) {
			return ce
		}
		return &CredentialError{Err: err}
	}
	return s.Login(ctx, tokens)
}

// Logout clears tokens, profile and the authenticated flag together. Memory
// is always cleared; a failure to persist the cleared session is returned.
// Calling it when logged out is harmless.
func (s *Service) Logout() error {
	return s.logout(context.Background())
}

func (s *Service) logout(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.clear(ctx)
}

// logoutSession logs out only if the session started from tokens is still
// the one held, so a late failure cannot end a newer login.
func (s *Service) logoutSession(ctx context.Context, from sessions.Tokens) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state.Tokens == nil || !s.state.Tokens.SameSession(from) {
		s.log.Debug().Msg("session already replaced, skipping logout")
		return nil
	}
	return s.clear(ctx)
}

// RefreshAccessToken replaces the access token, keeping the refresh token.
// Without a refresh token it returns NoRefreshTokenErr and changes nothing.
// Any failed exchange logs out and returns *RefreshError.
func (s *Service) RefreshAccessToken(ctx context.Context) error {
	held := s.State().Tokens
	if held == nil || held.RefreshToken == "" {
		s.metrics.RefreshResult("no_refresh_token")
		return NoRefreshTokenErr
	}

	accessToken, err := s.api.Refresh(ctx, held.RefreshToken)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "[Service.RefreshAccessToken]")
		}
		s.metrics.RefreshResult("failed")
		s.log.Warn().Err(err).Msg("token refresh failed, logging out")
		if logoutErr := s.logoutSession(ctx, *held); logoutErr != nil {
			s.log.Error().Err(logoutErr).Msg("logout after failed refresh")
		}
		return &RefreshError{Err: err}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state.Tokens == nil || !s.state.Tokens.SameSession(*held) {
		s.metrics.RefreshResult("stale")
		return SessionChangedErr
	}
	next := s.state.Clone()
	next.Tokens.AccessToken = accessToken
	if err := s.commit(ctx, next, "refresh"); err != nil {
		return err
	}
	s.metrics.RefreshResult("ok")
	return nil
}

// fetchProfile bounds the remote call by the profile timeout. Failures are
// returned as *ProfileFetchError, except cancellation of ctx itself.
func (s *Service) fetchProfile(ctx context.Context, accessToken string) (*users.User, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.profileTimeout)
	defer cancel()

	user, err := s.api.Profile(fetchCtx, accessToken)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProfileFetchError{Err: err}
	}
	return user, nil
}

// applyProfile is the single commit path for a resolved profile, used by
// both Login and the Bootstrapper. A profile for a session that is no longer
// held is dropped.
func (s *Service) applyProfile(ctx context.Context, from sessions.Tokens, user *users.User) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state.Tokens == nil || !s.state.Tokens.SameSession(from) {
		s.log.Debug().Msg("dropping profile for a replaced session")
		return nil
	}
	next := s.state.Clone()
	u := *user
	next.User = &u
	next.IsAuthenticated = true
	return s.commit(ctx, next, "profile")
}

// beginHydration claims the profile fetch for tokens. It returns false when
// one is already in flight for the same session.
func (s *Service) beginHydration(tokens sessions.Tokens) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.hydrating != nil && s.hydrating.SameSession(tokens) {
		return false
	}
	held := tokens
	s.hydrating = &held
	return true
}

// endHydration releases the claim. With retry set, a session still missing
// its profile is republished so the Bootstrapper picks it up.
func (s *Service) endHydration(tokens sessions.Tokens, retry bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.hydrating == nil || !s.hydrating.SameSession(tokens) {
		return
	}
	s.hydrating = nil
	if retry && s.state.NeedsProfile() {
		s.publish()
	}
}

// clear must be called with the lock held
func (s *Service) clear(ctx context.Context) error {
	prev := s.state.Status()
	s.state = sessions.State{}
	s.hydrating = nil
	err := s.save(ctx, s.state)
	if err != nil {
		s.log.Error().Err(err).Msg("persisting logout failed")
	}
	s.transitioned(prev, "logout")
	s.publish()
	return err
}

// commit persists next and then makes it current. It must be called with the
// lock held.
func (s *Service) commit(ctx context.Context, next sessions.State, reason string) error {
	if err := next.Validate(); err != nil {
		return errors.Wrapf(err, "[Service.commit] %s", reason)
	}
	if err := s.save(ctx, next); err != nil {
		s.log.Error().Err(err).Str("reason", reason).Msg("persisting session failed")
		return err
	}
	prev := s.state.Status()
	s.state = next.Clone()
	s.transitioned(prev, reason)
	s.publish()
	return nil
}

// save is not cancelled with ctx, so a caller giving up cannot leave memory
// and storage out of step.
func (s *Service) save(ctx context.Context, state sessions.State) error {
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()
	if err := s.repo.Save(saveCtx, state); err != nil {
		return errors.Wrap(err, "[Service.save] persist session")
	}
	return nil
}

func (s *Service) transitioned(prev sessions.Status, reason string) {
	status := s.state.Status()
	if status == prev {
		return
	}
	s.metrics.SessionTransition(status.String())
	ev := s.log.Info().Str("from", prev.String()).Str("to", status.String()).Str("reason", reason)
	if s.state.User != nil {
		ev = ev.Str("username", s.state.User.Username).Str("role", string(s.state.User.Role))
	}
	ev.Msg("session status changed")
}

// publish must be called with the lock held
func (s *Service) publish() {
	state := s.state.Clone()
	for _, ch := range s.subs {
		select {
		case ch <- state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}
