package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	"go.uber.org/zap"
)

//go:embed stories/*.json
var storiesFS embed.FS

// Compile-time check to ensure Catalog implements StoryCatalog.
var _ interfaces.StoryCatalog = (*Catalog)(nil)

// Catalog - неизменяемый набор графов историй, загружаемый один раз при старте
// процесса. Каждая история валидируется при загрузке: некорректный граф
// (битая ссылка nextSceneId, концовка с вариантами и т.п.) - это дефект
// авторинга, и процесс падает сразу, а не посреди прохождения.
type Catalog struct {
	stories []*models.Story
	byID    map[string]*models.Story
	logger  *zap.Logger
}

// New загружает каталог из историй, встроенных в бинарник.
func New(logger *zap.Logger) (*Catalog, error) {
	return NewFromFS(storiesFS, "stories", logger)
}

// NewFromFS загружает каталог из произвольной файловой системы.
// Используется тестами для подмены набора историй.
func NewFromFS(fsys fs.FS, dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("StoryCatalog")

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read story catalog dir %s: %w", dir, err)
	}

	// Сортируем по имени файла, чтобы порядок каталога был детерминированным
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	c := &Catalog{
		byID:   make(map[string]*models.Story, len(names)),
		logger: log,
	}

	for _, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read story file %s: %w", name, err)
		}

		story := &models.Story{}
		if err := json.Unmarshal(data, story); err != nil {
			return nil, fmt.Errorf("failed to parse story file %s: %w", name, err)
		}

		if err := validateStory(story); err != nil {
			return nil, fmt.Errorf("story %q (%s): %w", story.ID, name, err)
		}

		if _, exists := c.byID[story.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate story id %q", models.ErrInvalidStoryGraph, story.ID)
		}

		c.stories = append(c.stories, story)
		c.byID[story.ID] = story
		log.Debug("Story loaded",
			zap.String("storyID", story.ID),
			zap.Int("scenes", len(story.Scenes)),
			zap.Int("endings", story.EndingCount()),
		)
	}

	log.Info("Story catalog loaded", zap.Int("stories", len(c.stories)))
	return c, nil
}

// List возвращает все истории в порядке каталога.
func (c *Catalog) List() []*models.Story {
	return c.stories
}

// FindByID возвращает историю по ID или models.ErrStoryNotFound.
func (c *Catalog) FindByID(storyID string) (*models.Story, error) {
	story, ok := c.byID[storyID]
	if !ok {
		return nil, models.ErrStoryNotFound
	}
	return story, nil
}

// validateStory проверяет инварианты графа одной истории.
func validateStory(story *models.Story) error {
	if story.ID == "" {
		return fmt.Errorf("%w: empty story id", models.ErrInvalidStoryGraph)
	}
	if len(story.Scenes) == 0 {
		return fmt.Errorf("%w: story has no scenes", models.ErrInvalidStoryGraph)
	}

	sceneIDs := make(map[string]struct{}, len(story.Scenes))
	for i := range story.Scenes {
		scene := &story.Scenes[i]
		if scene.ID == "" {
			return fmt.Errorf("%w: scene without id", models.ErrInvalidStoryGraph)
		}
		if _, dup := sceneIDs[scene.ID]; dup {
			return fmt.Errorf("%w: duplicate scene id %q", models.ErrInvalidStoryGraph, scene.ID)
		}
		sceneIDs[scene.ID] = struct{}{}
	}

	for i := range story.Scenes {
		scene := &story.Scenes[i]

		if scene.IsEnding {
			if len(scene.Options) != 0 {
				return fmt.Errorf("%w: ending scene %q has options", models.ErrInvalidStoryGraph, scene.ID)
			}
			switch scene.EndingType {
			case models.EndingHappy, models.EndingNeutral, models.EndingTragic, models.EndingMysterious:
			default:
				return fmt.Errorf("%w: ending scene %q has invalid ending type %q", models.ErrInvalidStoryGraph, scene.ID, scene.EndingType)
			}
			continue
		}

		if len(scene.Options) == 0 {
			return fmt.Errorf("%w: non-ending scene %q has no options", models.ErrInvalidStoryGraph, scene.ID)
		}

		optionIDs := make(map[string]struct{}, len(scene.Options))
		defaults := 0
		for j := range scene.Options {
			option := &scene.Options[j]
			if option.ID == "" {
				return fmt.Errorf("%w: scene %q has an option without id", models.ErrInvalidStoryGraph, scene.ID)
			}
			if _, dup := optionIDs[option.ID]; dup {
				return fmt.Errorf("%w: scene %q has duplicate option id %q", models.ErrInvalidStoryGraph, scene.ID, option.ID)
			}
			optionIDs[option.ID] = struct{}{}

			if option.IsDefault {
				defaults++
			}

			// Ссылочная целостность графа: непустой nextSceneId обязан
			// разрешаться внутри той же истории
			if option.NextSceneID != "" {
				if _, ok := sceneIDs[option.NextSceneID]; !ok {
					return fmt.Errorf("%w: option %q of scene %q references unknown scene %q",
						models.ErrInvalidStoryGraph, option.ID, scene.ID, option.NextSceneID)
				}
			}
		}

		if defaults > 1 {
			return fmt.Errorf("%w: scene %q has %d default options", models.ErrInvalidStoryGraph, scene.ID, defaults)
		}
	}

	return nil
}
