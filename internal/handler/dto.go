package handler

import "quickstory-server/internal/models"

// StartStoryRequest - тело POST /api/game/start.
type StartStoryRequest struct {
	StoryID string `json:"storyId" binding:"required"`
}

// MakeChoiceRequest - тело POST /api/game/choice.
type MakeChoiceRequest struct {
	OptionID string `json:"optionId" binding:"required"`
}

// StorySummary - элемент списка каталога. Полный граф сцен клиенту в списке
// не нужен: метаданные, размеры и прогресс запрашивающего игрока.
type StorySummary struct {
	ID               string                      `json:"id"`
	Title            string                      `json:"title"`
	Description      string                      `json:"description"`
	Author           string                      `json:"author"`
	EstimatedMinutes int                         `json:"estimatedTime"`
	Tags             []string                    `json:"tags"`
	SceneCount       int                         `json:"sceneCount"`
	EndingCount      int                         `json:"endingCount"`
	Progress         models.StoryProgressSummary `json:"progress"`
}

// StoryListResponse - ответ GET /api/stories.
type StoryListResponse struct {
	Stories []StorySummary `json:"stories"`
}

func newStorySummary(story *models.Story, progress models.StoryProgressSummary) StorySummary {
	tags := story.Tags
	if tags == nil {
		tags = []string{}
	}
	return StorySummary{
		ID:               story.ID,
		Title:            story.Title,
		Description:      story.Description,
		Author:           story.Author,
		EstimatedMinutes: story.EstimatedMinutes,
		Tags:             tags,
		SceneCount:       len(story.Scenes),
		EndingCount:      story.EndingCount(),
		Progress:         progress,
	}
}

// Типы realtime-кадров websocket-потока.
const (
	FrameTypeTick        = "tick"
	FrameTypeScene       = "scene"
	FrameTypeChoice      = "choice"
	FrameTypeEnding      = "ending"
	FrameTypeAchievement = "achievement"
)

// TickFrame - кадр тика таймера активной сцены.
type TickFrame struct {
	Type          string  `json:"type"`
	TimeRemaining float64 `json:"timeRemaining"`
}

// EventFrame - кадр игрового события. Type определяется типом события
// (scene, choice, ending, achievement), полная запись события - в Event.
type EventFrame struct {
	Type  string           `json:"type"`
	Event models.GameEvent `json:"event"`
}

// frameTypeFor сопоставляет тип игрового события типу websocket-кадра.
func frameTypeFor(eventType string) string {
	switch eventType {
	case models.EventSceneEntered:
		return FrameTypeScene
	case models.EventChoiceMade:
		return FrameTypeChoice
	case models.EventEndingReached:
		return FrameTypeEnding
	case models.EventAchievementGranted:
		return FrameTypeAchievement
	default:
		return eventType
	}
}
