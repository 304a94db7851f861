package models

// EndingType классифицирует эмоциональную окраску концовки истории.
type EndingType string

const (
	EndingHappy      EndingType = "happy"
	EndingNeutral    EndingType = "neutral"
	EndingTragic     EndingType = "tragic"
	EndingMysterious EndingType = "mysterious"
)

// Option представляет один вариант выбора внутри сцены.
// Пустой NextSceneID означает, что выбор завершает историю на текущей сцене.
type Option struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	NextSceneID string `json:"nextSceneId,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

// Scene представляет узел в графе истории: либо точку выбора, либо концовку.
type Scene struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Image      string     `json:"image,omitempty"`
	Options    []Option   `json:"options,omitempty"`
	IsEnding   bool       `json:"isEnding,omitempty"`
	EndingType EndingType `json:"endingType,omitempty"`
}

// Story описывает полный граф одной истории. Неизменяема после загрузки каталога.
type Story struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Author           string   `json:"author"`
	EstimatedMinutes int      `json:"estimatedTime"`
	Tags             []string `json:"tags,omitempty"`
	Scenes           []Scene  `json:"scenes"`
}

// FirstScene возвращает входную сцену истории (первую в порядке каталога).
func (s *Story) FirstScene() *Scene {
	if len(s.Scenes) == 0 {
		return nil
	}
	return &s.Scenes[0]
}

// FindScene ищет сцену по ID внутри истории. Возвращает nil, если не найдена.
func (s *Story) FindScene(sceneID string) *Scene {
	for i := range s.Scenes {
		if s.Scenes[i].ID == sceneID {
			return &s.Scenes[i]
		}
	}
	return nil
}

// EndingCount возвращает количество сцен-концовок в истории.
func (s *Story) EndingCount() int {
	count := 0
	for i := range s.Scenes {
		if s.Scenes[i].IsEnding {
			count++
		}
	}
	return count
}

// FindOption ищет вариант выбора по ID внутри сцены. Возвращает nil, если не найден.
func (sc *Scene) FindOption(optionID string) *Option {
	for i := range sc.Options {
		if sc.Options[i].ID == optionID {
			return &sc.Options[i]
		}
	}
	return nil
}

// DefaultOption возвращает вариант, который применяется при истечении таймера.
// Правило разрешения явное: первый вариант с флагом IsDefault, иначе первый
// вариант по порядку. Для концовок (без вариантов) возвращает nil.
func (sc *Scene) DefaultOption() *Option {
	for i := range sc.Options {
		if sc.Options[i].IsDefault {
			return &sc.Options[i]
		}
	}
	if len(sc.Options) > 0 {
		return &sc.Options[0]
	}
	return nil
}
