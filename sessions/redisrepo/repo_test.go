package redisrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/sessions/redisrepo"
	"github.com/jrsteele09/restaurant-console/users"
)

func connect(t *testing.T, key string) (*miniredis.Miniredis, *redisrepo.Repo) {
	t.Helper()
	server := miniredis.RunT(t)
	repo, client, err := redisrepo.Connect(context.Background(), redisrepo.Config{Addr: server.Addr(), Key: key})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return server, repo
}

func TestRepo_SaveLoad(t *testing.T) {
	server, repo := connect(t, "")

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, sessions.ErrNotFound)

	pending := sessions.State{Tokens: &sessions.Tokens{AccessToken: "a", RefreshToken: "r"}, IsAuthenticated: true}
	require.NoError(t, repo.Save(context.Background(), pending))

	ready := pending.Clone()
	ready.User = &users.User{ID: 3, Username: "sam", Role: users.RoleStaff}
	require.NoError(t, repo.Save(context.Background(), ready))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.True(t, loaded.Equal(ready))

	raw, err := server.Get(sessions.StorageKey)
	require.NoError(t, err)
	require.Contains(t, raw, `"version":0`)
	require.Zero(t, server.TTL(sessions.StorageKey))
}

func TestRepo_LoggedOutRecord(t *testing.T) {
	_, repo := connect(t, "")

	require.NoError(t, repo.Save(context.Background(), sessions.State{}))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.True(t, loaded.Equal(sessions.State{}))
}

func TestRepo_CorruptValue(t *testing.T) {
	server, repo := connect(t, "console:session")

	require.NoError(t, server.Set("console:session", "{not json"))
	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, sessions.ErrCorrupt)

	require.NoError(t, server.Set("console:session", `{"state":{"isAuthenticated":false},"version":7}`))
	_, err = repo.Load(context.Background())
	require.ErrorIs(t, err, sessions.ErrCorrupt)
}

func TestRepo_ServerError(t *testing.T) {
	server, repo := connect(t, "")
	server.SetError("ERR server unavailable")

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, sessions.ErrNotFound)
	require.Error(t, repo.Save(context.Background(), sessions.State{}))
}

func TestNew_DefaultKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	require.Equal(t, sessions.StorageKey, redisrepo.New(client, "").Key())
	require.Equal(t, "console:session", redisrepo.New(client, "console:session").Key())
}

func TestRepo_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	repo := redisrepo.New(client, "")

	_, err := repo.Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, sessions.ErrNotFound)

	require.Error(t, repo.Save(context.Background(), sessions.State{}))
}

func TestConnect_FailsWithoutServer(t *testing.T) {
	_, _, err := redisrepo.Connect(context.Background(), redisrepo.Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	require.Error(t, err)
}
