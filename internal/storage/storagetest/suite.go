// Package storagetest holds behaviour checks every storage.Store must pass.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/minigames-be/internal/models"
	"github.com/hongminglow/minigames-be/internal/storage"
)

// Run executes the store contract against stores produced by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Helper()

	t.Run("create and find user", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.CreateUser(ctx, models.User{Name: "Ada", Email: "Ada@Example.com", PasswordHash: "hash"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "ada@example.com", created.Email)
		assert.False(t, created.CreatedAt.IsZero())

		byEmail, err := s.FindUserByEmail(ctx, "ADA@example.COM")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := s.FindUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", byID.Name)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateUser(ctx, models.User{Name: "a", Email: "dup@example.com", PasswordHash: "x"})
		require.NoError(t, err)
		_, err = s.CreateUser(ctx, models.User{Name: "b", Email: "DUP@example.com", PasswordHash: "y"})
		assert.ErrorIs(t, err, storage.ErrAlreadyExists)
	})

	t.Run("missing user", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.FindUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = s.FindUserByID(ctx, "00000000-0000-0000-0000-000000000000")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("outcome round trip for every game and result", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := mustUser(t, s, "round@example.com")

		base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		i := 0
		for _, game := range models.GameTypes {
			for _, result := range models.Results {
				created, err := s.CreateOutcome(ctx, models.Outcome{
					UserID:    user.ID,
					GameType:  game,
					Score:     i,
					Result:    result,
					Timestamp: base.Add(time.Duration(i) * time.Minute),
				})
				require.NoError(t, err)
				assert.NotEmpty(t, created.ID)
				assert.False(t, created.CreatedAt.IsZero())
				i++
			}
		}

		listed, err := s.ListOutcomes(ctx, user.ID, storage.HistoryLimit)
		require.NoError(t, err)
		require.Len(t, listed, i)
		for j, outcome := range listed {
			want := i - 1 - j
			assert.Equal(t, want, outcome.Score)
			assert.Equal(t, models.GameTypes[want/len(models.Results)], outcome.GameType)
			assert.Equal(t, models.Results[want%len(models.Results)], outcome.Result)
			assert.True(t, outcome.Timestamp.Equal(base.Add(time.Duration(want)*time.Minute)))
			assert.Equal(t, user.ID, outcome.UserID)
		}
	})

	t.Run("list is bounded and newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		user := mustUser(t, s, "many@example.com")
		other := mustUser(t, s, "other@example.com")

		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < storage.HistoryLimit+10; i++ {
			// Insert out of timestamp order to exercise sorting.
			offset := (i * 37) % (storage.HistoryLimit + 10)
			_, err := s.CreateOutcome(ctx, models.Outcome{
				UserID:    user.ID,
				GameType:  models.GameReactionTime,
				Score:     offset,
				Result:    models.ResultCompleted,
				Timestamp: base.Add(time.Duration(offset) * time.Second),
			})
			require.NoError(t, err)
		}
		_, err := s.CreateOutcome(ctx, models.Outcome{
			UserID: other.ID, GameType: models.GameTicTacToe, Result: models.ResultWin, Score: 1, Timestamp: base.Add(time.Hour),
		})
		require.NoError(t, err)

		listed, err := s.ListOutcomes(ctx, user.ID, storage.HistoryLimit)
		require.NoError(t, err)
		require.Len(t, listed, storage.HistoryLimit)
		for j := 1; j < len(listed); j++ {
			assert.False(t, listed[j].Timestamp.After(listed[j-1].Timestamp), "outcome %d is newer than %d", j, j-1)
		}
		assert.Equal(t, storage.HistoryLimit+9, listed[0].Score)
		for _, outcome := range listed {
			assert.Equal(t, user.ID, outcome.UserID)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		s := newStore(t)
		user := mustUser(t, s, "empty@example.com")

		listed, err := s.ListOutcomes(context.Background(), user.ID, storage.HistoryLimit)
		require.NoError(t, err)
		assert.Empty(t, listed)
	})

	t.Run("outcome for unknown user", func(t *testing.T) {
		s := newStore(t)

		_, err := s.CreateOutcome(context.Background(), models.Outcome{
			UserID:    "00000000-0000-0000-0000-000000000000",
			GameType:  models.GameNumberGuessing,
			Result:    models.ResultWin,
			Score:     3,
			Timestamp: time.Now(),
		})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func mustUser(t *testing.T, s storage.Store, email string) models.User {
	t.Helper()
	user, err := s.CreateUser(context.Background(), models.User{
		Name:         fmt.Sprintf("user %s", email),
		Email:        email,
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}
