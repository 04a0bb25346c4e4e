package app

import (
	"context"
	"fmt"

	"github.com/jrsteele09/restaurant-console/internal/config"
	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/sessions/filerepo"
	"github.com/jrsteele09/restaurant-console/sessions/redisrepo"
	fakesessionrepo "github.com/jrsteele09/restaurant-console/sessions/repofakes"
	"github.com/jrsteele09/restaurant-console/sessions/sqliterepo"
)

// OpenRepo builds the session backend cfg selects. The returned func
// releases any connection it opened.
func OpenRepo(ctx context.Context, cfg config.SessionConfig) (sessions.Repo, func(), error) {
	noop := func() {}
	switch cfg.GetSessionStore() {
	case config.StoreMemory:
		return fakesessionrepo.NewFakeSessionRepo(), noop, nil
	case config.StoreFile:
		repo, err := filerepo.New(cfg.GetSessionDir(), cfg.GetSessionKey())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session file: %w", err)
		}
		return repo, noop, nil
	case config.StoreRedis:
		repo, client, err := redisrepo.Connect(ctx, redisrepo.Config{
			Addr: cfg.GetRedisAddr(),
			DB:   cfg.GetRedisDB(),
			Key:  cfg.GetSessionKey(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return repo, func() { _ = client.Close() }, nil
	case config.StoreSqlite:
		repo, err := sqliterepo.Open(cfg.GetSqlitePath(), cfg.GetSessionKey())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session database: %w", err)
		}
		return repo, func() { _ = repo.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q", cfg.GetSessionStore())
}
