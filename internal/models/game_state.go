package models

// GameStateSnapshot - моментальный снимок транзиентного состояния сессии игрока.
// Никогда не персистится напрямую: долговечен только UserProgress внутри сессии.
type GameStateSnapshot struct {
	StoryID       string  `json:"storyId,omitempty"`
	SceneID       string  `json:"sceneId,omitempty"`
	Scene         *Scene  `json:"scene,omitempty"`
	TimeRemaining float64 `json:"timeRemaining"`
	IsPlaying     bool    `json:"isPlaying"`
}

// StoryProgressSummary - производная статистика прогресса по одной истории.
type StoryProgressSummary struct {
	StoryID            string `json:"storyId"`
	EndingsUnlocked    int    `json:"endingsUnlocked"`
	TotalEndings       int    `json:"totalEndings"`
	IsCompleted        bool   `json:"isCompleted"`
	ProgressPercentage int    `json:"progressPercentage"`
}

// PlayerStats - сводная статистика игрока по всему каталогу.
type PlayerStats struct {
	StoriesCompleted     int             `json:"storiesCompleted"`
	TotalStories         int             `json:"totalStories"`
	TotalEndingsUnlocked int             `json:"totalEndingsUnlocked"`
	TotalPlayTimeSeconds int64           `json:"totalPlayTime"`
	Achievements         map[string]bool `json:"achievements"`
}
