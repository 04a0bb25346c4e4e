// Package redisrepo persists the session record under a single Redis key.
package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/restaurant-console/sessions"
)

var _ sessions.Repo = (*Repo)(nil)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr    string
	DB      int
	Key     string
	Timeout time.Duration
}

// Repo stores the encoded record with SET, which replaces the value
// atomically.
type Repo struct {
	client redis.Cmdable
	key    string
}

// New wraps an existing client. An empty key uses sessions.StorageKey.
func New(client redis.Cmdable, key string) *Repo {
	if key == "" {
		key = sessions.StorageKey
	}
	return &Repo{client: client, key: key}
}

// Connect initialises a Redis client, validates connectivity with a ping and
// returns a Repo over it together with the client so the caller can close it.
func Connect(ctx context.Context, cfg Config) (*Repo, *redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	return New(client, cfg.Key), client, nil
}

// Key returns the Redis key holding the record
func (r *Repo) Key() string {
	return r.key
}

func (r *Repo) Load(ctx context.Context) (sessions.State, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sessions.State{}, sessions.ErrNotFound
		}
		return sessions.State{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return sessions.Unmarshal(data)
}

func (r *Repo) Save(ctx context.Context, state sessions.State) error {
	data, err := sessions.Marshal(state)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
