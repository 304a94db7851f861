package stats

import (
	"testing"

	"quickstory-server/internal/models"

	"github.com/stretchr/testify/assert"
)

func storyWithEndings(id string, endings int) *models.Story {
	story := &models.Story{ID: id}
	story.Scenes = append(story.Scenes, models.Scene{
		ID:      "s1",
		Options: []models.Option{{ID: "opt", NextSceneID: "end-1"}},
	})
	for i := 1; i <= endings; i++ {
		story.Scenes = append(story.Scenes, models.Scene{
			ID:         "end-" + string(rune('0'+i)),
			IsEnding:   true,
			EndingType: models.EndingNeutral,
		})
	}
	return story
}

func TestStoryProgress(t *testing.T) {
	story := storyWithEndings("shadows-choice", 4)

	t.Run("no progress", func(t *testing.T) {
		summary := StoryProgress(story, models.NewUserProgress())
		assert.Equal(t, 0, summary.EndingsUnlocked)
		assert.Equal(t, 4, summary.TotalEndings)
		assert.False(t, summary.IsCompleted)
		assert.Equal(t, 0, summary.ProgressPercentage)
	})

	t.Run("partial progress rounds percentage", func(t *testing.T) {
		progress := models.NewUserProgress()
		progress.UnlockEnding("shadows-choice", "end-1")
		progress.MarkCompleted("shadows-choice")

		summary := StoryProgress(story, progress)
		assert.Equal(t, 1, summary.EndingsUnlocked)
		assert.True(t, summary.IsCompleted)
		assert.Equal(t, 25, summary.ProgressPercentage)
	})

	t.Run("one of three rounds to 33", func(t *testing.T) {
		threeEndings := storyWithEndings("midnight-train", 3)
		progress := models.NewUserProgress()
		progress.UnlockEnding("midnight-train", "end-1")

		summary := StoryProgress(threeEndings, progress)
		assert.Equal(t, 33, summary.ProgressPercentage)
	})

	t.Run("all endings give exactly 100", func(t *testing.T) {
		progress := models.NewUserProgress()
		for _, sceneID := range []string{"end-1", "end-2", "end-3", "end-4"} {
			progress.UnlockEnding("shadows-choice", sceneID)
		}

		summary := StoryProgress(story, progress)
		assert.Equal(t, 100, summary.ProgressPercentage)
	})

	t.Run("story without endings never divides by zero", func(t *testing.T) {
		summary := StoryProgress(&models.Story{ID: "broken"}, models.NewUserProgress())
		assert.Equal(t, 0, summary.ProgressPercentage)
		assert.Equal(t, 0, summary.TotalEndings)
	})
}

func TestPlayerStats(t *testing.T) {
	stories := []*models.Story{
		storyWithEndings("shadows-choice", 4),
		storyWithEndings("midnight-train", 5),
		storyWithEndings("last-transmission", 5),
	}

	progress := models.NewUserProgress()
	progress.UnlockEnding("shadows-choice", "end-1")
	progress.UnlockEnding("shadows-choice", "end-2")
	progress.UnlockEnding("midnight-train", "end-1")
	progress.MarkCompleted("shadows-choice")
	progress.MarkCompleted("midnight-train")
	progress.GrantAchievement(models.AchievementExplorer)
	progress.TotalPlayTimeSeconds = 360

	result := PlayerStats(stories, progress)
	assert.Equal(t, 2, result.StoriesCompleted)
	assert.Equal(t, 3, result.TotalStories)
	assert.Equal(t, 3, result.TotalEndingsUnlocked)
	assert.Equal(t, int64(360), result.TotalPlayTimeSeconds)
	assert.True(t, result.Achievements[models.AchievementExplorer])
	assert.False(t, result.Achievements[models.AchievementStoryteller])
}
