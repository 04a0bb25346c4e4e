package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config interface {
	APIConfig
	SessionConfig
	LogConfig
	ServeConfig
}

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
	GetProfileTimeout() time.Duration
	GetRefreshSkew() time.Duration
}

type SessionConfig interface {
	GetSessionStore() StoreKind
	GetSessionDir() string
	GetSessionKey() string
	GetRedisAddr() string
	GetRedisDB() int
	GetSqlitePath() string
}

type LogConfig interface {
	GetLogLevel() string
	GetLogPretty() bool
}

type ServeConfig interface {
	GetAppName() string
	GetListenAddr() string
	GetMetricsEnabled() bool
}

// StoreKind selects the session persistence backend
type StoreKind string

const (
	StoreMemory StoreKind = "memory"
	StoreFile   StoreKind = "file"
	StoreRedis  StoreKind = "redis"
	StoreSqlite StoreKind = "sqlite"
)

// EnvVars is the environment backed Config
type EnvVars struct {
	AppName        string        `env:"CONSOLE_APP_NAME, default=Restaurant Console"`
	APIBaseURL     string        `env:"CONSOLE_API_BASE_URL, default=http://localhost:8080"`
	RequestTimeout time.Duration `env:"CONSOLE_REQUEST_TIMEOUT, default=15s"`
	ProfileTimeout time.Duration `env:"CONSOLE_PROFILE_TIMEOUT, default=10s"`
	RefreshSkew    time.Duration `env:"CONSOLE_REFRESH_SKEW, default=30s"`

	SessionStore string `env:"CONSOLE_SESSION_STORE, default=file"`
	SessionDir   string `env:"CONSOLE_SESSION_DIR, default=./data"`
	SessionKey   string `env:"CONSOLE_SESSION_KEY, default=auth-storage"`
	RedisAddr    string `env:"CONSOLE_REDIS_ADDR, default=localhost:6379"`
	RedisDB      int    `env:"CONSOLE_REDIS_DB, default=0"`
	SqlitePath   string `env:"CONSOLE_SQLITE_PATH, default=./data/console.db"`

	LogLevel  string `env:"CONSOLE_LOG_LEVEL, default=info"`
	LogPretty bool   `env:"CONSOLE_LOG_PRETTY, default=false"`

	ListenAddr     string `env:"CONSOLE_LISTEN_ADDR, default=:3000"`
	MetricsEnabled bool   `env:"CONSOLE_METRICS_ENABLED, default=true"`
}

var _ Config = EnvVars{}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom reads configuration from the given key/value pairs, for tests
// and embedding.
func LoadFrom(ctx context.Context, values map[string]string) (Config, error) {
	return load(ctx, envconfig.MapLookuper(values))
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var env EnvVars
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &env,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}

func (e EnvVars) Validate() error {
	u, err := url.Parse(e.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CONSOLE_API_BASE_URL must be an absolute URL, got %q", e.APIBaseURL)
	}
	if e.RequestTimeout <= 0 {
		return fmt.Errorf("CONSOLE_REQUEST_TIMEOUT must be positive")
	}
	if e.ProfileTimeout <= 0 {
		return fmt.Errorf("CONSOLE_PROFILE_TIMEOUT must be positive")
	}
	if e.RefreshSkew < 0 {
		return fmt.Errorf("CONSOLE_REFRESH_SKEW cannot be negative")
	}
	switch e.GetSessionStore() {
	case StoreMemory:
	case StoreFile:
		if strings.TrimSpace(e.SessionDir) == "" {
			return fmt.Errorf("CONSOLE_SESSION_DIR cannot be empty for the file store")
		}
	case StoreRedis:
		if strings.TrimSpace(e.RedisAddr) == "" {
			return fmt.Errorf("CONSOLE_REDIS_ADDR cannot be empty for the redis store")
		}
	case StoreSqlite:
		if strings.TrimSpace(e.SqlitePath) == "" {
			return fmt.Errorf("CONSOLE_SQLITE_PATH cannot be empty for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown CONSOLE_SESSION_STORE %q", e.SessionStore)
	}
	return nil
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetAPIBaseURL() string {
	return strings.TrimRight(e.APIBaseURL, "/")
}

func (e EnvVars) GetRequestTimeout() time.Duration {
	return e.RequestTimeout
}

func (e EnvVars) GetProfileTimeout() time.Duration {
	return e.ProfileTimeout
}

func (e EnvVars) GetRefreshSkew() time.Duration {
	return e.RefreshSkew
}

func (e EnvVars) GetSessionStore() StoreKind {
	return StoreKind(strings.ToLower(strings.TrimSpace(e.SessionStore)))
}

func (e EnvVars) GetSessionDir() string {
	return e.SessionDir
}

func (e EnvVars) GetSessionKey() string {
	return e.SessionKey
}

func (e EnvVars) GetRedisAddr() string {
	return e.RedisAddr
}

func (e EnvVars) GetRedisDB() int {
	return e.RedisDB
}

func (e EnvVars) GetSqlitePath() string {
	return e.SqlitePath
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetLogPretty() bool {
	return e.LogPretty
}

func (e EnvVars) GetListenAddr() string {
	return e.ListenAddr
}

func (e EnvVars) GetMetricsEnabled() bool {
	return e.MetricsEnabled
}
