// Package stats содержит чистые функции агрегации прогресса игрока поверх
// каталога историй. Здесь нет побочных эффектов и мутаций: функции безопасно
// вызывать сколько угодно раз и параллельно с работой движка, если им
// передается снапшот прогресса (UserProgress.Clone).
package stats

import (
	"math"

	"quickstory-server/internal/models"
)

// StoryProgress считает производную статистику прохождения одной истории.
// При нуле концовок в истории процент равен нулю (деления на ноль нет).
func StoryProgress(story *models.Story, progress *models.UserProgress) models.StoryProgressSummary {
	totalEndings := story.EndingCount()
	unlocked := progress.EndingsUnlocked(story.ID)

	percentage := 0
	if totalEndings > 0 {
		percentage = int(math.Round(100 * float64(unlocked) / float64(totalEndings)))
	}

	return models.StoryProgressSummary{
		StoryID:            story.ID,
		EndingsUnlocked:    unlocked,
		TotalEndings:       totalEndings,
		IsCompleted:        progress.IsCompleted(story.ID),
		ProgressPercentage: percentage,
	}
}

// PlayerStats считает сводную статистику игрока по всему каталогу.
func PlayerStats(stories []*models.Story, progress *models.UserProgress) models.PlayerStats {
	totalEndings := 0
	for _, endings := range progress.UnlockedEndings {
		totalEndings += len(endings)
	}

	return models.PlayerStats{
		StoriesCompleted:     len(progress.CompletedStories),
		TotalStories:         len(stories),
		TotalEndingsUnlocked: totalEndings,
		TotalPlayTimeSeconds: progress.TotalPlayTimeSeconds,
		Achievements: map[string]bool{
			models.AchievementExplorer:    progress.HasAchievement(models.AchievementExplorer),
			models.AchievementStoryteller: progress.HasAchievement(models.AchievementStoryteller),
		},
	}
}
