package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/restaurant-console/internal/app"
	"github.com/jrsteele09/restaurant-console/internal/webconsole"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(rt *runtime) *cobra.Command {
	var addr string
	var noBanner bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console over local HTTP",
		Long: `Serve the console on a local address: a login form, the guarded
/reservations, /employees and /me views, and /metrics.

Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cmd.SetContext(ctx)

			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !noBanner {
					displayAppname(cmd.OutOrStdout(), a.Config.GetAppName())
				}
				if addr == "" {
					addr = a.Config.GetListenAddr()
				}
				return serve(ctx, a, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default CONSOLE_LISTEN_ADDR)")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "skip the startup banner")
	return cmd
}

// serve runs the console and the session bootstrapper until ctx is done
func serve(ctx context.Context, a *app.App, addr string) error {
	console := webconsole.New(a.Session, a.Restaurant,
		webconsole.WithLogger(a.Log.With().Str("component", "webconsole").Logger(), a.Config.GetLogPretty()),
		webconsole.WithMetrics(a.Metrics, a.Registry),
	)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	server := &http.Server{Handler: console.Handler(), ReadHeaderTimeout: 10 * time.Second}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	bootstrapDone := make(chan error, 1)
	go func() { bootstrapDone <- a.Bootstrap.Run(runCtx) }()

	serveErr := make(chan error, 1)
	go func() {
		a.Log.Info().Str("addr", listener.Addr().String()).Msg("console listening")
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("server.Serve: %w", err)
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}
	if shutdownErr := shutdown(server); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	cancelRun()
	<-bootstrapDone
	a.Log.Info().Msg("console stopped")
	return err
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(out io.Writer, appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	fmt.Fprintln(out, myFigure.String())
}
