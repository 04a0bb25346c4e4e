package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/restaurant-console/auth"
	"github.com/jrsteele09/restaurant-console/internal/app"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/token"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Long: `Sign in with a username and password. The password is read from standard
input when --password is not given.

Examples:
  console login --username host
  echo "$PASSWORD" | console login --username host`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("no password given")
				}
				password = strings.TrimRight(line, "\r\n")
			}
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				err := a.Session.SignIn(ctx, auth.Credentials{Username: username, Password: password})
				var ce *auth.CredentialError
				if errors.As(err, &ce) {
					return errors.New(ce.UserMessage())
				}
				if err != nil {
					return err
				}
				state := a.Session.State()
				if !state.IsAuthenticated {
					return errors.New("signed in, but the profile could not be loaded; try again")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", state.User.Username, state.User.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "login name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when empty)")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Session.Logout(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				writeStatus(cmd, a.Session.State(), time.Now())
				return nil
			})
		},
	}
}

func writeStatus(cmd *cobra.Command, state sessions.State, now time.Time) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status:   %s\n", state.Status())
	if state.User != nil {
		fmt.Fprintf(out, "user:     %s (%s)\n", state.User.Username, state.User.Role)
	}
	if state.Tokens == nil {
		return
	}
	if exp, ok := token.Expiry(state.Tokens.AccessToken); ok {
		left := exp.Sub(now).Round(time.Second)
		if left > 0 {
			fmt.Fprintf(out, "expires:  %s (in %s)\n", exp.Format(time.RFC3339), left)
		} else {
			fmt.Fprintf(out, "expires:  %s (expired)\n", exp.Format(time.RFC3339))
		}
	}
	fmt.Fprintf(out, "refresh:  %t\n", state.Tokens.RefreshToken != "")
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireSession(ctx, cmd, a); err != nil {
					return err
				}
				u := a.Session.User()
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", u.Username, u.Role, u.ID)
				return nil
			})
		},
	}
}

func newRefreshCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				err := a.Session.RefreshAccessToken(ctx)
				switch {
				case errors.Is(err, auth.NoRefreshTokenErr):
					return fmt.Errorf("nothing to refresh: %w", err)
				case err != nil:
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Access token refreshed")
				return nil
			})
		},
	}
}
