package sqliterepo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/restaurant-console/sessions"
	"github.com/jrsteele09/restaurant-console/sessions/sqliterepo"
	"github.com/jrsteele09/restaurant-console/users"
	"github.com/stretchr/testify/require"
)

func TestRepo_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.db")
	repo, err := sqliterepo.Open(path, "")
	require.NoError(t, err)

	_, err = repo.Load(context.Background())
	require.ErrorIs(t, err, sessions.ErrNotFound)

	pending := sessions.State{Tokens: &sessions.Tokens{AccessToken: "a", RefreshToken: "r"}, IsAuthenticated: true}
	require.NoError(t, repo.Save(context.Background(), pending))

	ready := pending.Clone()
	ready.User = &users.User{ID: 3, Username: "sam", Role: users.RoleStaff}
	require.NoError(t, repo.Save(context.Background(), ready))
	require.NoError(t, repo.Close())

	reopened, err := sqliterepo.Open(path, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	loaded, err := reopened.Load(context.Background())
	require.NoError(t, err)
	require.True(t, loaded.Equal(ready))
}

func TestRepo_NamesAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.db")
	first, err := sqliterepo.Open(path, "first")
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })
	second, err := sqliterepo.Open(path, "second")
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	require.NoError(t, first.Save(context.Background(), sessions.State{Tokens: &sessions.Tokens{AccessToken: "a"}, IsAuthenticated: true}))

	_, err = second.Load(context.Background())
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqliterepo.Open(" ", "")
	require.Error(t, err)
}
