package app_test

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/restaurant-console/apiclient"
	"github.com/jrsteele09/restaurant-console/apifake"
	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/internal/app"
	"github.com/jrsteele09/restaurant-console/internal/config"
	"github.com/jrsteele09/restaurant-console/sessions"
	fakesessionrepo "github.com/jrsteele09/restaurant-console/sessions/repofakes"
	"github.com/jrsteele09/restaurant-console/users"
)

func startAPI(t *testing.T) (*apifake.Server, string) {
	t.Helper()
	fake, err := apifake.New()
	require.NoError(t, err)
	_, err = fake.AddUser("host", "pw", users.RoleStaff)
	require.NoError(t, err)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return fake, srv.URL
}

func loadConfig(t *testing.T, values map[string]string) config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(context.Background(), values)
	require.NoError(t, err)
	return cfg
}

func newApp(t *testing.T, cfg config.Config) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestSessionSurvivesRestart(t *testing.T) {
	_, baseURL := startAPI(t)
	dir := t.TempDir()

	for name, values := range map[string]map[string]string{
		"file":   {"CONSOLE_SESSION_STORE": "file", "CONSOLE_SESSION_DIR": dir},
		"sqlite": {"CONSOLE_SESSION_STORE": "sqlite", "CONSOLE_SQLITE_PATH": filepath.Join(dir, "console.db")},
	} {
		t.Run(name, func(t *testing.T) {
			values["CONSOLE_API_BASE_URL"] = baseURL
			cfg := loadConfig(t, values)

			first, err := app.New(context.Background(), cfg, app.WithLogOutput(io.Discard))
			require.NoError(t, err)
			require.NoError(t, first.Session.SignIn(context.Background(), auth.Credentials{Username: "host", Password: "pw"}))
			require.Equal(t, sessions.StatusReady, first.Session.Status())
			first.Close()

			second := newApp(t, cfg)
			require.NoError(t, second.Start(context.Background()))
			require.Equal(t, sessions.StatusReady, second.Session.Status())
			require.Equal(t, "host", second.Session.User().Username)

			list, err := second.Restaurant.Reservations(context.Background())
			require.NoError(t, err)
			require.Empty(t, list)
		})
	}
}

func TestStartHealsPendingSession(t *testing.T) {
	_, baseURL := startAPI(t)
	client, err := apiclient.New(baseURL)
	require.NoError(t, err)
	tokens, err := auth.NewRemoteAPI(client).Login(context.Background(), auth.Credentials{Username: "host", Password: "pw"})
	require.NoError(t, err)
	repo, err := fakesessionrepo.NewFakeSessionRepoWith(sessions.State{Tokens: &tokens, IsAuthenticated: true})
	require.NoError(t, err)

	cfg := loadConfig(t, map[string]string{"CONSOLE_API_BASE_URL": baseURL})
	a, err := app.New(context.Background(), cfg, app.WithLogOutput(io.Discard), app.WithRepo(repo))
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, sessions.StatusPendingProfile, a.Session.Status())

	require.NoError(t, a.Start(context.Background()))
	require.Equal(t, sessions.StatusReady, a.Session.Status())
	persisted, ok := repo.Persisted()
	require.True(t, ok)
	require.Equal(t, "host", persisted.User.Username)
}

func TestRestaurantCallsRefreshExpiringToken(t *testing.T) {
	fake, baseURL := startAPI(t)
	a := newApp(t, loadConfig(t, map[string]string{
		"CONSOLE_API_BASE_URL":  baseURL,
		"CONSOLE_SESSION_STORE": "memory",
		"CONSOLE_REFRESH_SKEW":  "1h",
	}))
	require.NoError(t, a.Session.SignIn(context.Background(), auth.Credentials{Username: "host", Password: "pw"}))
	before := a.Session.AccessToken()

	_, err := a.Restaurant.Reservations(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fake.Calls(auth.RefreshPath))
	require.NotEqual(t, before, a.Session.AccessToken())
}

func TestRestaurantCallsFailWithoutSession(t *testing.T) {
	fake, baseURL := startAPI(t)
	a := newApp(t, loadConfig(t, map[string]string{
		"CONSOLE_API_BASE_URL":  baseURL,
		"CONSOLE_SESSION_STORE": "memory",
	}))

	_, err := a.Restaurant.Reservations(context.Background())
	require.ErrorIs(t, err, auth.NotAuthenticatedErr)
	require.Zero(t, fake.Calls("/v1/private/reservations"))
}

func TestMetricsRegistry(t *testing.T) {
	_, baseURL := startAPI(t)

	enabled := newApp(t, loadConfig(t, map[string]string{
		"CONSOLE_API_BASE_URL":  baseURL,
		"CONSOLE_SESSION_STORE": "memory",
	}))
	require.NotNil(t, enabled.Registry)
	require.NoError(t, enabled.Session.SignIn(context.Background(), auth.Credentials{Username: "host", Password: "pw"}))
	require.Equal(t, 1.0, testutil.ToFloat64(enabled.Metrics.APIRequests.WithLabelValues("GET", "2xx")))

	disabled := newApp(t, loadConfig(t, map[string]string{
		"CONSOLE_API_BASE_URL":    baseURL,
		"CONSOLE_SESSION_STORE":   "memory",
		"CONSOLE_METRICS_ENABLED": "false",
	}))
	require.Nil(t, disabled.Registry)
	require.Nil(t, disabled.Metrics)
}

func TestOpenRepo_RedisUnreachable(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"CONSOLE_SESSION_STORE": "redis",
		"CONSOLE_REDIS_ADDR":    "127.0.0.1:1",
	})
	_, _, err := app.OpenRepo(context.Background(), cfg)
	require.Error(t, err)
}
