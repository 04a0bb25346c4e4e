package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/restaurant-console/internal/metrics"
)

// Bootstrapper heals sessions that hold tokens but no profile, such as one
// persisted by a run that stopped between login and the profile fetch.
type Bootstrapper struct {
	svc     *Service
	log     zerolog.Logger
	metrics *metrics.Metrics
}

// BootstrapperOption defines a function type to modify the Bootstrapper instance.
type BootstrapperOption func(*Bootstrapper)

func WithBootstrapLogger(log zerolog.Logger) BootstrapperOption {
	return func(b *Bootstrapper) {
		b.log = log
	}
}

func WithBootstrapMetrics(m *metrics.Metrics) BootstrapperOption {
	return func(b *Bootstrapper) {
		b.metrics = m
	}
}

func NewBootstrapper(svc *Service, options ...BootstrapperOption) (*Bootstrapper, error) {
	if svc == nil {
		return nil, errors.New("[NewBootstrapper] service is required")
	}
	b := &Bootstrapper{svc: svc, log: zerolog.Nop()}
	for _, opt := range options {
		opt(b)
	}
	return b, nil
}

// Reconcile fetches the profile for held tokens that lack one. Success is
// committed the same way a login commits it; failure logs out. Sessions that
// are logged out, already resolved, or being resolved by a login are left
// alone.
func (b *Bootstrapper) Reconcile(ctx context.Context) error {
	state := b.svc.State()
	if !state.NeedsProfile() {
		return nil
	}
	tokens := *state.Tokens
	if !b.svc.beginHydration(tokens) {
		b.log.Debug().Msg("profile fetch already in flight")
		return nil
	}
	defer b.svc.endHydration(tokens, false)

	user, err := b.svc.fetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b.metrics.HydrationResult("failed")
		b.log.Warn().Err(err).Msg("restoring profile failed, logging out")
		return b.svc.logoutSession(ctx, tokens)
	}
	b.metrics.HydrationResult("ok")
	b.log.Info().Str("username", user.Username).Msg("profile restored")
	return b.svc.applyProfile(ctx, tokens, user)
}

// Run reconciles once, then again after every session change, until ctx is
// done or the service is disposed.
func (b *Bootstrapper) Run(ctx context.Context) error {
	changes, unsubscribe := b.svc.Subscribe()
	defer unsubscribe()

	b.reconcile(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-changes:
			if !ok {
				return nil
			}
			if state.NeedsProfile() {
				b.reconcile(ctx)
			}
		}
	}
}

func (b *Bootstrapper) reconcile(ctx context.Context) {
	if err := b.Reconcile(ctx); err != nil && ctx.Err() == nil {
		b.log.Error().Err(err).Msg("session reconcile failed")
	}
}
