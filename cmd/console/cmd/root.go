// Package cmd provides the CLI commands for the restaurant console.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/guard"
	"github.com/jrsteele09/restaurant-console/internal/app"
	"github.com/jrsteele09/restaurant-console/internal/config"
)

type runtime struct {
	envFile string
	loadCfg func(ctx context.Context) (config.Config, error)
	appOpts []app.Option
}

// RootOption defines a function type to modify how commands are built.
type RootOption func(*runtime)

// WithConfig skips the environment and uses cfg
func WithConfig(cfg config.Config) RootOption {
	return func(rt *runtime) {
		rt.loadCfg = func(context.Context) (config.Config, error) { return cfg, nil }
	}
}

// WithAppOptions passes options through to every App the commands build
func WithAppOptions(opts ...app.Option) RootOption {
	return func(rt *runtime) {
		rt.appOpts = append(rt.appOpts, opts...)
	}
}

// NewRootCmd builds the command tree
func NewRootCmd(options ...RootOption) *cobra.Command {
	rt := &runtime{loadCfg: config.Load}
	for _, opt := range options {
		opt(rt)
	}

	root := &cobra.Command{
		Use:   "console",
		Short: "Restaurant Console - reservations and staff from the terminal",
		Long: `Restaurant Console signs in to the restaurant API and keeps the session
between runs, refreshing the access token as it nears expiry.

Configuration comes from CONSOLE_* environment variables, optionally loaded
from a .env file. Example:
  CONSOLE_API_BASE_URL=http://localhost:8080
  CONSOLE_SESSION_STORE=file

Commands that show restaurant data need a signed in session; run
"console login" first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if rt.envFile == "" {
				return nil
			}
			if err := godotenv.Load(rt.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load %s: %w", rt.envFile, err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "dotenv file to load before reading the environment (missing is fine)")

	root.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newStatusCmd(rt),
		newWhoamiCmd(rt),
		newRefreshCmd(rt),
		newReservationsCmd(rt),
		newEmployeesCmd(rt),
		newServeCmd(rt),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the App, heals a session left pending by an earlier run,
// runs fn and disposes everything.
func (rt *runtime) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := rt.loadCfg(ctx)
	if err != nil {
		return err
	}
	opts := append([]app.Option{app.WithLogOutput(cmd.ErrOrStderr())}, rt.appOpts...)
	a, err := app.New(ctx, cfg, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	return fn(ctx, a)
}

// LoginRequiredErr is returned by protected commands without a session
var LoginRequiredErr = errors.New(`not signed in, run "console login"`)

// ProfileLoadingErr is returned while the session's profile is unresolved
var ProfileLoadingErr = errors.New("session profile is still loading, try again")

// requireSession applies the guard to a protected command and refreshes an
// expiring access token before the command calls the API.
func requireSession(ctx context.Context, cmd *cobra.Command, a *app.App) error {
	d := guard.Decide(a.Session.State(), cmd.CommandPath())
	switch d.Outcome {
	case guard.Deny:
		return LoginRequiredErr
	case guard.Loading:
		return ProfileLoadingErr
	}
	if err := a.Session.EnsureFresh(ctx); err != nil {
		if errors.Is(err, auth.NoRefreshTokenErr) {
			if logoutErr := a.Session.Logout(); logoutErr != nil {
				a.Log.Error().Err(logoutErr).Msg("persisting logout of expired session")
			}
		}
		var re *auth.RefreshError
		if errors.As(err, &re) || errors.Is(err, auth.NoRefreshTokenErr) {
			return fmt.Errorf("session expired and could not be refreshed, run \"console login\": %w", err)
		}
		return err
	}
	return nil
}
