// Package app wires the console together from configuration: the session
// backend, the API adapter, the session service and its bootstrapper.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/restaurant-console/apiclient"
	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/internal/config"
	"github.com/jrsteele09/restaurant-console/internal/logger"
	"github.com/jrsteele09/restaurant-console/internal/metrics"
	"github.com/jrsteele09/restaurant-console/restaurant"
	"github.com/jrsteele09/restaurant-console/sessions"
)

type App struct {
	Config     config.Config
	Log        zerolog.Logger
	Registry   *prometheus.Registry // nil when metrics are disabled
	Metrics    *metrics.Metrics
	API        *apiclient.Client
	Session    *auth.Service
	Bootstrap  *auth.Bootstrapper
	Restaurant *restaurant.Client

	cleanupFuncs []func()
}

type options struct {
	logOutput  io.Writer
	repo       sessions.Repo
	httpClient *http.Client
}

// Option defines a function type to modify how the App is built.
type Option func(*options)

// WithLogOutput sends logs to w instead of stderr
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOutput = w
	}
}

// WithRepo uses repo instead of the configured session store
func WithRepo(repo sessions.Repo) Option {
	return func(o *options) {
		o.repo = repo
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// New builds the App and loads the persisted session. It does not reconcile;
// call Start for that. ctx also bounds refreshes triggered by restaurant
// calls, so it should live as long as the App.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config: cfg,
		Log: logger.New(logger.Options{
			Level:  cfg.GetLogLevel(),
			Pretty: cfg.GetLogPretty(),
			Output: o.logOutput,
		}),
	}
	if cfg.GetMetricsEnabled() {
		a.Registry = prometheus.NewRegistry()
		a.Metrics = metrics.New(a.Registry)
	}

	repo := o.repo
	if repo == nil {
		opened, closeRepo, err := OpenRepo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		repo = opened
		a.cleanupFuncs = append(a.cleanupFuncs, closeRepo)
	}

	clientOpts := []apiclient.Option{
		apiclient.WithTimeout(cfg.GetRequestTimeout()),
		apiclient.WithLogger(a.Log.With().Str("component", "apiclient").Logger()),
		apiclient.WithMetrics(a.Metrics),
		apiclient.WithUserAgent(cfg.GetAppName()),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	api, err := apiclient.New(cfg.GetAPIBaseURL(), clientOpts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}
	a.API = api

	sessionLog := a.Log.With().Str("component", "session").Logger()
	svc, err := auth.NewService(auth.NewRemoteAPI(api), repo,
		auth.WithLogger(sessionLog),
		auth.WithMetrics(a.Metrics),
		auth.WithProfileTimeout(cfg.GetProfileTimeout()),
		auth.WithRefreshSkew(cfg.GetRefreshSkew()),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}
	if err := svc.Init(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	a.Session = svc
	a.cleanupFuncs = append(a.cleanupFuncs, svc.Dispose)
	api.SetTokenProvider(svc)

	a.Bootstrap, err = auth.NewBootstrapper(svc,
		auth.WithBootstrapLogger(sessionLog),
		auth.WithBootstrapMetrics(a.Metrics),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create bootstrapper: %w", err)
	}
	// The restaurant endpoints take the bearer from the session's token
	// source, which refreshes ahead of expiry. The auth endpoints keep the
	// plain provider so a refresh never waits on itself.
	restaurantAPI, err := apiclient.New(cfg.GetAPIBaseURL(), append(clientOpts,
		apiclient.WithLogger(a.Log.With().Str("component", "restaurant").Logger()),
		apiclient.WithTokenSource(svc.TokenSource(ctx)),
	)...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create restaurant client: %w", err)
	}
	a.Restaurant = restaurant.NewClient(restaurantAPI)
	return a, nil
}

// Start heals a session left without a profile by an earlier run
func (a *App) Start(ctx context.Context) error {
	return a.Bootstrap.Reconcile(ctx)
}

// Close disposes the session service and releases the session store, in
// reverse order of construction.
func (a *App) Close() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
