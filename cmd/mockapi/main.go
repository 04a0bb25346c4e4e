// Command mockapi serves the fake restaurant API for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	"github.com/jrsteele09/restaurant-console/apifake"
	"github.com/jrsteele09/restaurant-console/internal/logger"
	"github.com/jrsteele09/restaurant-console/users"
)

type settings struct {
	Addr      string        `env:"MOCKAPI_ADDR, default=:8080"`
	Secret    string        `env:"MOCKAPI_SECRET, default=mockapi-dev-secret"`
	TokenTTL  time.Duration `env:"MOCKAPI_TOKEN_TTL, default=15m"`
	LogLevel  string        `env:"MOCKAPI_LOG_LEVEL, default=info"`
	LogPretty bool          `env:"MOCKAPI_LOG_PRETTY, default=true"`

	// Seed accounts, one per role
	AdminPassword   string `env:"MOCKAPI_ADMIN_PASSWORD, default=admin"`
	ManagerPassword string `env:"MOCKAPI_MANAGER_PASSWORD, default=manager"`
	StaffPassword   string `env:"MOCKAPI_STAFF_PASSWORD, default=staff"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("Error loading .env: %s\n", err)
	}
	if err := run(); err != nil {
		log.Fatalf("Error running mock API: %s\n", err)
	}
	log.Printf("Mock API stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	var s settings
	if err := envconfig.Process(context.Background(), &s); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	lg := logger.New(logger.Options{Level: s.LogLevel, Pretty: s.LogPretty, Component: "mockapi"})

	displayAppname("Mock API")
	fake, err := apifake.New(
		apifake.WithSecret([]byte(s.Secret)),
		apifake.WithTokenTTL(s.TokenTTL),
		apifake.WithLogger(lg, s.LogPretty),
	)
	if err != nil {
		return err
	}
	if err := seed(fake, lg, s); err != nil {
		return err
	}

	server := &http.Server{Addr: s.Addr, Handler: fake.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server, lg) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func seed(fake *apifake.Server, lg zerolog.Logger, s settings) error {
	for username, seeded := range map[string]struct {
		password string
		role     users.RoleType
	}{
		"admin":   {s.AdminPassword, users.RoleAdmin},
		"manager": {s.ManagerPassword, users.RoleManager},
		"staff":   {s.StaffPassword, users.RoleStaff},
	} {
		if _, err := fake.AddUser(username, seeded.password, seeded.role); err != nil {
			return fmt.Errorf("seeding %s: %w", username, err)
		}
		lg.Info().Str("username", username).Str("role", string(seeded.role)).Msg("seeded account")
	}
	return nil
}

func listenAndServe(server *http.Server, lg zerolog.Logger) error {
	lg.Info().Str("addr", server.Addr).Msg("mock API listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
