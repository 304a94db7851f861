package database

import (
	"context"
	"testing"

	"quickstory-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryProgressRepository(t *testing.T) {
	repo := NewMemoryProgressRepository()
	ctx := context.Background()
	playerID := uuid.New()

	t.Run("get missing returns not found", func(t *testing.T) {
		_, err := repo.Get(ctx, playerID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("save then get round trip", func(t *testing.T) {
		progress := models.NewUserProgress()
		progress.UnlockEnding("shadows-choice", "ending-1")
		require.NoError(t, repo.Save(ctx, playerID, progress))

		loaded, err := repo.Get(ctx, playerID)
		require.NoError(t, err)
		assert.Equal(t, progress, loaded)
	})

	t.Run("stored record is isolated from caller mutations", func(t *testing.T) {
		progress := models.NewUserProgress()
		progress.UnlockEnding("shadows-choice", "ending-1")
		require.NoError(t, repo.Save(ctx, playerID, progress))

		// Мутируем оригинал после сохранения
		progress.UnlockEnding("shadows-choice", "ending-2")

		loaded, err := repo.Get(ctx, playerID)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded.EndingsUnlocked("shadows-choice"))

		// Мутация прочитанной копии не видна хранилищу
		loaded.UnlockEnding("shadows-choice", "ending-4")
		again, err := repo.Get(ctx, playerID)
		require.NoError(t, err)
		assert.Equal(t, 1, again.EndingsUnlocked("shadows-choice"))
	})
}
