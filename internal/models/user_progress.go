package models

import (
	"encoding/json"
	"slices"
)

// UserProgressSchemaVersion - текущая версия схемы сериализованного прогресса.
const UserProgressSchemaVersion = 1

// Идентификаторы достижений. Каждое выдается не более одного раза
// за все время жизни записи прогресса.
const (
	AchievementExplorer    = "explorer"    // >= 3 открытых концовок в одной истории
	AchievementStoryteller = "storyteller" // >= 3 пройденных историй
)

// UserProgress хранит накопленный прогресс игрока по всем историям.
// Мутируется только движком обхода при достижении концовки и сохраняется
// синхронно после каждой мутации (write-through, без батчинга).
type UserProgress struct {
	SchemaVersion        int                 `json:"schemaVersion"`
	CompletedStories     []string            `json:"completedStories"`
	UnlockedEndings      map[string][]string `json:"unlockedEndings"`
	Achievements         []string            `json:"achievements"`
	TotalPlayTimeSeconds int64               `json:"totalPlayTime"`
}

// NewUserProgress создает запись прогресса с пустыми значениями по умолчанию.
func NewUserProgress() *UserProgress {
	return &UserProgress{
		SchemaVersion:    UserProgressSchemaVersion,
		CompletedStories: []string{},
		UnlockedEndings:  map[string][]string{},
		Achievements:     []string{},
	}
}

// DecodeUserProgress десериализует сохраненный JSON поверх значений по умолчанию:
// отсутствующие поля остаются пустыми, а обновление схемы никогда не падает.
// Поврежденный payload возвращается как ошибка - вызывающая сторона обязана
// залогировать его и продолжить с NewUserProgress().
func DecodeUserProgress(data []byte) (*UserProgress, error) {
	progress := NewUserProgress()
	if err := json.Unmarshal(data, progress); err != nil {
		return nil, err
	}
	// json.Unmarshal мог затереть значения по умолчанию null-ами
	if progress.CompletedStories == nil {
		progress.CompletedStories = []string{}
	}
	if progress.UnlockedEndings == nil {
		progress.UnlockedEndings = map[string][]string{}
	}
	if progress.Achievements == nil {
		progress.Achievements = []string{}
	}
	if progress.SchemaVersion == 0 {
		progress.SchemaVersion = UserProgressSchemaVersion
	}
	return progress, nil
}

// Clone возвращает глубокую копию прогресса. Используется для снапшотов,
// которые читаются агрегатором параллельно с мутациями движка.
func (p *UserProgress) Clone() *UserProgress {
	clone := &UserProgress{
		SchemaVersion:        p.SchemaVersion,
		CompletedStories:     slices.Clone(p.CompletedStories),
		UnlockedEndings:      make(map[string][]string, len(p.UnlockedEndings)),
		Achievements:         slices.Clone(p.Achievements),
		TotalPlayTimeSeconds: p.TotalPlayTimeSeconds,
	}
	for storyID, endings := range p.UnlockedEndings {
		clone.UnlockedEndings[storyID] = slices.Clone(endings)
	}
	return clone
}

// UnlockEnding добавляет концовку в набор открытых для истории.
// Семантика множества: повторное добавление - no-op, возвращает false.
func (p *UserProgress) UnlockEnding(storyID, sceneID string) bool {
	if slices.Contains(p.UnlockedEndings[storyID], sceneID) {
		return false
	}
	p.UnlockedEndings[storyID] = append(p.UnlockedEndings[storyID], sceneID)
	return true
}

// MarkCompleted отмечает историю как пройденную. Идемпотентно.
func (p *UserProgress) MarkCompleted(storyID string) bool {
	if slices.Contains(p.CompletedStories, storyID) {
		return false
	}
	p.CompletedStories = append(p.CompletedStories, storyID)
	return true
}

// GrantAchievement выдает достижение, если оно еще не выдано.
func (p *UserProgress) GrantAchievement(achievementID string) bool {
	if p.HasAchievement(achievementID) {
		return false
	}
	p.Achievements = append(p.Achievements, achievementID)
	return true
}

// HasAchievement проверяет наличие достижения.
func (p *UserProgress) HasAchievement(achievementID string) bool {
	return slices.Contains(p.Achievements, achievementID)
}

// EndingsUnlocked возвращает число открытых концовок для истории.
func (p *UserProgress) EndingsUnlocked(storyID string) int {
	return len(p.UnlockedEndings[storyID])
}

// IsCompleted проверяет, пройдена ли история хотя бы до одной концовки.
func (p *UserProgress) IsCompleted(storyID string) bool {
	return slices.Contains(p.CompletedStories, storyID)
}
