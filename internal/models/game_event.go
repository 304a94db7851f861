package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы структурированных событий, которые движок отдает во внешний sink.
const (
	EventSceneEntered       = "scene_entered"
	EventChoiceMade         = "choice_made"
	EventEndingReached      = "ending_reached"
	EventAchievementGranted = "achievement_granted"
)

// GameEvent - событие игрового процесса для публикации наблюдателям
// (очередь, websocket-клиент). Поля заполняются в зависимости от типа.
type GameEvent struct {
	ID           uuid.UUID  `json:"id"`
	Type         string     `json:"type"`
	PlayerID     uuid.UUID  `json:"playerId"`
	StoryID      string     `json:"storyId,omitempty"`
	SceneID      string     `json:"sceneId,omitempty"`
	OptionID     string     `json:"optionId,omitempty"`
	EndingType   EndingType `json:"endingType,omitempty"`
	Achievement  string     `json:"achievement,omitempty"`
	AutoResolved bool       `json:"autoResolved,omitempty"` // true, если выбор применен по истечении таймера
	OccurredAt   time.Time  `json:"occurredAt"`
}

// NewGameEvent создает событие с заполненным ID и временной меткой.
func NewGameEvent(eventType string, playerID uuid.UUID) GameEvent {
	return GameEvent{
		ID:         uuid.New(),
		Type:       eventType,
		PlayerID:   playerID,
		OccurredAt: time.Now().UTC(),
	}
}
