package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage"
	"github.com/hongminglow/minigames-be/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Store {
		s, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "minigames.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewStore(ctx, path)
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, storagetestUser("keep@example.com"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := NewStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	user, err := reopened.FindUserByEmail(ctx, "keep@example.com")
	require.NoError(t, err)
	require.Equal(t, "keep", user.Name)
}

func storagetestUser(email string) models.User {
	return models.User{Name: "keep", Email: email, PasswordHash: "hash"}
}
