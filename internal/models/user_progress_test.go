package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUserProgress(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		data := []byte(`{
			"schemaVersion": 1,
			"completedStories": ["shadows-choice"],
			"unlockedEndings": {"shadows-choice": ["ending-1", "ending-2"]},
			"achievements": ["explorer"],
			"totalPlayTime": 420
		}`)

		progress, err := DecodeUserProgress(data)
		require.NoError(t, err)
		assert.Equal(t, []string{"shadows-choice"}, progress.CompletedStories)
		assert.Equal(t, []string{"ending-1", "ending-2"}, progress.UnlockedEndings["shadows-choice"])
		assert.True(t, progress.HasAchievement(AchievementExplorer))
		assert.Equal(t, int64(420), progress.TotalPlayTimeSeconds)
	})

	t.Run("missing fields fall back to defaults", func(t *testing.T) {
		progress, err := DecodeUserProgress([]byte(`{"completedStories": ["midnight-train"]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"midnight-train"}, progress.CompletedStories)
		assert.NotNil(t, progress.UnlockedEndings)
		assert.NotNil(t, progress.Achievements)
		assert.Equal(t, UserProgressSchemaVersion, progress.SchemaVersion)
	})

	t.Run("explicit nulls are restored to empty values", func(t *testing.T) {
		progress, err := DecodeUserProgress([]byte(`{"completedStories": null, "unlockedEndings": null, "achievements": null}`))
		require.NoError(t, err)
		assert.NotNil(t, progress.CompletedStories)
		assert.NotNil(t, progress.UnlockedEndings)
		assert.NotNil(t, progress.Achievements)
	})

	t.Run("corrupt payload returns error", func(t *testing.T) {
		_, err := DecodeUserProgress([]byte(`{"completedStories": "not-an-array"`))
		assert.Error(t, err)
	})
}

func TestUserProgress_SetSemantics(t *testing.T) {
	progress := NewUserProgress()

	assert.True(t, progress.UnlockEnding("shadows-choice", "ending-1"))
	assert.False(t, progress.UnlockEnding("shadows-choice", "ending-1"), "повторное открытие той же концовки - no-op")
	assert.True(t, progress.UnlockEnding("shadows-choice", "ending-2"))
	assert.Equal(t, 2, progress.EndingsUnlocked("shadows-choice"))

	assert.True(t, progress.MarkCompleted("shadows-choice"))
	assert.False(t, progress.MarkCompleted("shadows-choice"))
	assert.True(t, progress.IsCompleted("shadows-choice"))
	assert.False(t, progress.IsCompleted("midnight-train"))

	assert.True(t, progress.GrantAchievement(AchievementExplorer))
	assert.False(t, progress.GrantAchievement(AchievementExplorer))
	assert.Equal(t, []string{AchievementExplorer}, progress.Achievements)
}

func TestUserProgress_CloneIsDeep(t *testing.T) {
	progress := NewUserProgress()
	progress.UnlockEnding("shadows-choice", "ending-1")
	progress.MarkCompleted("shadows-choice")

	clone := progress.Clone()
	clone.UnlockEnding("shadows-choice", "ending-2")
	clone.MarkCompleted("midnight-train")

	assert.Equal(t, 1, progress.EndingsUnlocked("shadows-choice"), "мутация клона не видна оригиналу")
	assert.Len(t, progress.CompletedStories, 1)
}

func TestUserProgress_RoundTrip(t *testing.T) {
	progress := NewUserProgress()
	progress.UnlockEnding("shadows-choice", "ending-1")
	progress.MarkCompleted("shadows-choice")
	progress.GrantAchievement(AchievementStoryteller)
	progress.TotalPlayTimeSeconds = 99

	data, err := json.Marshal(progress)
	require.NoError(t, err)

	decoded, err := DecodeUserProgress(data)
	require.NoError(t, err)
	assert.Equal(t, progress, decoded)
}
