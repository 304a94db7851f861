package engine

import (
	"context"
	"sync"
	"time"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"
	"quickstory-server/internal/stats"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session - машина состояний обхода историй для одного игрока:
// Idle -> SceneActive -> (SceneActive | EndingReached), с возвратом в Idle
// через выход на главный экран. Владеет транзиентным GameState и единственной
// записью UserProgress; весь доступ сериализован мьютексом, так что таймер и
// ручной выбор никогда не применяются параллельно.
type Session struct {
	mu sync.Mutex

	playerID uuid.UUID
	catalog  interfaces.StoryCatalog
	repo     interfaces.ProgressRepository
	events   interfaces.GameEventPublisher
	notifier interfaces.ClientNotifier
	metrics  *Metrics
	logger   *zap.Logger

	countdown *Countdown
	// timerGen растет при каждой активации/отмене таймера; onExpire с
	// несовпадающим поколением устарел и игнорируется. Это исключает двойное
	// разрешение сцены, когда истечение и ручной выбор попадают в одно окно.
	timerGen uint64

	progress       *models.UserProgress
	currentStory   *models.Story
	currentScene   *models.Scene
	isPlaying      bool
	storyStartedAt time.Time
}

func newSession(playerID uuid.UUID, progress *models.UserProgress, cfg Config, deps hubDeps) *Session {
	s := &Session{
		playerID: playerID,
		catalog:  deps.catalog,
		repo:     deps.repo,
		events:   deps.events,
		notifier: deps.notifier,
		metrics:  deps.metrics,
		logger:   deps.logger.Named("Session").With(zap.String("playerID", playerID.String())),
		progress: progress,
	}
	s.countdown = NewCountdown(cfg.SceneDuration, cfg.TickInterval, s.notifyTick, deps.logger)
	return s
}

func (s *Session) notifyTick(remaining float64) {
	if s.notifier != nil {
		s.notifier.NotifyTick(s.playerID, remaining)
	}
}

// StartStory начинает прохождение истории с ее первой сцены.
// Неизвестный storyID - благожелательный no-op (логируется: это рассинхрон UI).
func (s *Session) StartStory(ctx context.Context, storyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	story, err := s.catalog.FindByID(storyID)
	if err != nil {
		s.logger.Warn("StartStory: unknown story id", zap.String("storyID", storyID))
		return
	}
	s.enterStoryLocked(ctx, story)
}

// RestartStory заново входит в текущую историю с первой сцены, отбрасывая
// позицию прохождения, но не долговечный прогресс.
func (s *Session) RestartStory(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentStory == nil {
		s.logger.Warn("RestartStory: no active story")
		return
	}
	s.enterStoryLocked(ctx, s.currentStory)
}

// MakeChoice применяет вариант выбора текущей сцены.
func (s *Session) MakeChoice(ctx context.Context, optionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyChoiceLocked(ctx, optionID, false)
}

// ExitToHome сбрасывает транзиентное состояние в Idle и гасит таймер.
// Долговечный UserProgress не трогается.
func (s *Session) ExitToHome() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timerGen++
	s.countdown.Reset()
	s.currentStory = nil
	s.currentScene = nil
	s.isPlaying = false
	s.logger.Debug("Exited to home")
}

// Snapshot возвращает снимок транзиентного состояния сессии.
func (s *Session) Snapshot() models.GameStateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.GameStateSnapshot{
		TimeRemaining: s.countdown.Remaining(),
		IsPlaying:     s.isPlaying,
	}
	if s.currentStory != nil {
		snap.StoryID = s.currentStory.ID
	}
	if s.currentScene != nil {
		snap.SceneID = s.currentScene.ID
		snap.Scene = s.currentScene
	}
	return snap
}

// StoryProgress возвращает производную статистику прохождения одной истории.
func (s *Session) StoryProgress(storyID string) (models.StoryProgressSummary, error) {
	story, err := s.catalog.FindByID(storyID)
	if err != nil {
		return models.StoryProgressSummary{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return stats.StoryProgress(story, s.progress), nil
}

// Progress возвращает глубокую копию прогресса для безопасного чтения
// агрегатором параллельно с мутациями движка.
func (s *Session) Progress() *models.UserProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Clone()
}

// Close гасит таймер сессии (graceful shutdown).
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerGen++
	s.countdown.Cancel()
}

// --- внутренняя логика (вызывается под s.mu) ---

func (s *Session) enterStoryLocked(ctx context.Context, story *models.Story) {
	first := story.FirstScene()
	if first == nil {
		// Каталог такое не пропускает, чисто защитная ветка
		s.logger.Error("Story has no scenes", zap.String("storyID", story.ID))
		return
	}

	s.timerGen++
	s.countdown.Cancel()

	s.currentStory = story
	s.currentScene = first
	s.isPlaying = true
	s.storyStartedAt = time.Now()
	s.metrics.StoriesStarted.Inc()

	event := models.NewGameEvent(models.EventSceneEntered, s.playerID)
	event.StoryID = story.ID
	event.SceneID = first.ID
	s.publishLocked(ctx, event)

	s.activateCountdownLocked()
	s.logger.Info("Story started", zap.String("storyID", story.ID), zap.String("sceneID", first.ID))
}

func (s *Session) activateCountdownLocked() {
	s.timerGen++
	gen := s.timerGen
	s.countdown.Activate(s.currentScene, func(defaultOptionID string) {
		s.handleExpiry(gen, defaultOptionID)
	})
}

// handleExpiry вызывается горутиной таймера при истечении отсчета.
func (s *Session) handleExpiry(gen uint64, defaultOptionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.timerGen {
		// Таймер устарел: сцена уже разрешена ручным выбором или сменилась
		return
	}

	s.metrics.CountdownsExpired.Inc()
	s.logger.Debug("Countdown expired, applying default option", zap.String("optionID", defaultOptionID))
	// Контекст запроса давно завершен, берем фоновый
	s.applyChoiceLocked(context.Background(), defaultOptionID, true)
}

func (s *Session) applyChoiceLocked(ctx context.Context, optionID string, auto bool) {
	if s.currentStory == nil || s.currentScene == nil {
		s.logger.Debug("MakeChoice: no active scene", zap.String("optionID", optionID))
		return
	}

	option := s.currentScene.FindOption(optionID)
	if option == nil {
		// Рассинхрон UI: валидный клиент такие ID не прислал бы
		s.logger.Warn("MakeChoice: unknown option id",
			zap.String("optionID", optionID),
			zap.String("sceneID", s.currentScene.ID),
		)
		return
	}

	// Снимаем таймер синхронно до применения выбора: не более одного
	// разрешения на сцену
	s.timerGen++
	s.countdown.Cancel()

	choiceEvent := models.NewGameEvent(models.EventChoiceMade, s.playerID)
	choiceEvent.StoryID = s.currentStory.ID
	choiceEvent.SceneID = s.currentScene.ID
	choiceEvent.OptionID = option.ID
	choiceEvent.AutoResolved = auto
	s.publishLocked(ctx, choiceEvent)

	if option.NextSceneID == "" {
		// Терминальное разрешение без перехода: текущая сцена (носитель
		// варианта) засчитывается как открытая концовка
		s.recordEndingLocked(ctx, s.currentScene)
		return
	}

	next := s.currentStory.FindScene(option.NextSceneID)
	if next == nil {
		// Битая ссылка в графе - дефект данных. Каталог валидирует граф при
		// загрузке, поэтому сюда попадать не должны; остаемся на месте.
		s.logger.Error("Option references unknown scene",
			zap.String("storyID", s.currentStory.ID),
			zap.String("optionID", option.ID),
			zap.String("nextSceneID", option.NextSceneID),
		)
		return
	}

	s.currentScene = next

	enteredEvent := models.NewGameEvent(models.EventSceneEntered, s.playerID)
	enteredEvent.StoryID = s.currentStory.ID
	enteredEvent.SceneID = next.ID
	s.publishLocked(ctx, enteredEvent)

	if next.IsEnding {
		s.countdown.Reset()
		s.recordEndingLocked(ctx, next)
		return
	}

	s.activateCountdownLocked()
}

// recordEndingLocked фиксирует достижение концовки: мутирует прогресс,
// проверяет пороги достижений и синхронно персистит запись (write-through).
func (s *Session) recordEndingLocked(ctx context.Context, scene *models.Scene) {
	storyID := s.currentStory.ID

	s.progress.UnlockEnding(storyID, scene.ID)
	s.progress.MarkCompleted(storyID)

	elapsed := int64(time.Since(s.storyStartedAt).Seconds())
	if elapsed > 0 {
		s.progress.TotalPlayTimeSeconds += elapsed
	}
	s.storyStartedAt = time.Now()

	s.metrics.EndingsReached.Inc()

	endingEvent := models.NewGameEvent(models.EventEndingReached, s.playerID)
	endingEvent.StoryID = storyID
	endingEvent.SceneID = scene.ID
	endingEvent.EndingType = scene.EndingType
	s.publishLocked(ctx, endingEvent)

	// Пороги оцениваются по уже обновленным счетчикам; каждое достижение
	// выдается не более одного раза за все время жизни записи прогресса
	if s.progress.EndingsUnlocked(storyID) >= 3 && s.progress.GrantAchievement(models.AchievementExplorer) {
		s.grantAchievementLocked(ctx, models.AchievementExplorer)
	}
	if len(s.progress.CompletedStories) >= 3 && s.progress.GrantAchievement(models.AchievementStoryteller) {
		s.grantAchievementLocked(ctx, models.AchievementStoryteller)
	}

	if err := s.repo.Save(ctx, s.playerID, s.progress.Clone()); err != nil {
		// Потеря максимум одного разрешения сцены - принятый риск, геймплей
		// не роняем
		s.logger.Error("Failed to persist progress", zap.Error(err), zap.String("storyID", storyID))
	}

	s.logger.Info("Ending reached",
		zap.String("storyID", storyID),
		zap.String("sceneID", scene.ID),
		zap.String("endingType", string(scene.EndingType)),
	)
}

func (s *Session) grantAchievementLocked(ctx context.Context, achievementID string) {
	s.metrics.AchievementsGranted.Inc()
	event := models.NewGameEvent(models.EventAchievementGranted, s.playerID)
	event.Achievement = achievementID
	s.publishLocked(ctx, event)
	s.logger.Info("Achievement granted", zap.String("achievement", achievementID))
}

func (s *Session) publishLocked(ctx context.Context, event models.GameEvent) {
	if s.events != nil {
		if err := s.events.PublishGameEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish game event", zap.Error(err), zap.String("type", event.Type))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyGameEvent(s.playerID, event)
	}
}
