package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config - настройки таймера сцены. Нулевые значения заменяются
// фиксированными игровыми (10s / 100ms); тесты подставляют короткие
// интервалы.
type Config struct {
	SceneDuration time.Duration
	TickInterval  time.Duration
}

type hubDeps struct {
	catalog  interfaces.StoryCatalog
	repo     interfaces.ProgressRepository
	events   interfaces.GameEventPublisher
	notifier interfaces.ClientNotifier
	metrics  *Metrics
	logger   *zap.Logger
}

// Hub владеет игровыми сессиями, по одной на игрока. Сессия создается лениво
// при первом обращении; прогресс игрока загружается из репозитория один раз
// и дальше живет в памяти сессии (write-through при мутациях).
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	cfg      Config
	deps     hubDeps
}

// NewHub создает реестр сессий.
func NewHub(
	catalog interfaces.StoryCatalog,
	repo interfaces.ProgressRepository,
	events interfaces.GameEventPublisher,
	cfg Config,
	metrics *Metrics,
	logger *zap.Logger,
) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Hub{
		sessions: make(map[uuid.UUID]*Session),
		cfg:      cfg,
		deps: hubDeps{
			catalog: catalog,
			repo:    repo,
			events:  events,
			metrics: metrics,
			logger:  logger,
		},
	}
}

// SetNotifier подключает realtime-уведомления (websocket-менеджер).
// Вызывается один раз при старте, до обслуживания запросов.
func (h *Hub) SetNotifier(notifier interfaces.ClientNotifier) {
	h.deps.notifier = notifier
}

// Session возвращает сессию игрока, создавая ее при первом обращении.
func (h *Hub) Session(ctx context.Context, playerID uuid.UUID) (*Session, error) {
	h.mu.RLock()
	session, ok := h.sessions[playerID]
	h.mu.RUnlock()
	if ok {
		return session, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// Могли создать, пока ждали запись
	if session, ok = h.sessions[playerID]; ok {
		return session, nil
	}

	progress, err := h.deps.repo.Get(ctx, playerID)
	if errors.Is(err, models.ErrNotFound) {
		progress = models.NewUserProgress()
	} else if err != nil {
		return nil, fmt.Errorf("failed to load player progress: %w", err)
	}

	session = newSession(playerID, progress, h.cfg, h.deps)
	h.sessions[playerID] = session
	h.deps.logger.Info("Game session created", zap.String("playerID", playerID.String()))
	return session, nil
}

// Shutdown гасит таймеры всех сессий.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, session := range h.sessions {
		session.Close()
	}
	h.deps.logger.Info("All game sessions closed", zap.Int("count", len(h.sessions)))
}
