package handler

import (
	"errors"
	"net/http"

	"quickstory-server/internal/engine"
	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/middleware"
	"quickstory-server/internal/models"
	"quickstory-server/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameplayHandler - HTTP-слой поверх движка. Все игровые ручки работают в
// терминах сессии игрока; сами операции движка благожелательны к рассинхрону
// UI (неизвестные ID - no-op), поэтому ручки отвечают актуальным снапшотом.
type GameplayHandler struct {
	hub     *engine.Hub
	catalog interfaces.StoryCatalog
	logger  *zap.Logger
}

// NewGameplayHandler создает обработчик игровых запросов.
func NewGameplayHandler(hub *engine.Hub, catalog interfaces.StoryCatalog, logger *zap.Logger) *GameplayHandler {
	return &GameplayHandler{
		hub:     hub,
		catalog: catalog,
		logger:  logger.Named("GameplayHandler"),
	}
}

// RegisterRoutes вешает маршруты API на роутер. identity определяет игрока
// (JWT или X-Device-ID) и обязателен для всех игровых ручек.
func (h *GameplayHandler) RegisterRoutes(router *gin.Engine, identity gin.HandlerFunc) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api", identity)
	{
		api.GET("/stories", h.ListStories)
		api.GET("/stories/:story_id/progress", h.GetStoryProgress)

		game := api.Group("/game")
		{
			game.POST("/start", h.StartStory)
			game.POST("/choice", h.MakeChoice)
			game.POST("/restart", h.RestartStory)
			game.POST("/exit", h.ExitToHome)
			game.GET("/state", h.GetGameState)
		}

		api.GET("/profile/stats", h.GetPlayerStats)
	}
}

// HealthCheck - проверка живости сервиса.
func (h *GameplayHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListStories возвращает метаданные всех историй каталога вместе с
// прогрессом запрашивающего игрока по каждой из них.
func (h *GameplayHandler) ListStories(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	progress := session.Progress()
	stories := h.catalog.List()
	summaries := make([]StorySummary, 0, len(stories))
	for _, story := range stories {
		summaries = append(summaries, newStorySummary(story, stats.StoryProgress(story, progress)))
	}
	c.JSON(http.StatusOK, StoryListResponse{Stories: summaries})
}

// GetStoryProgress возвращает производную статистику прохождения истории.
func (h *GameplayHandler) GetStoryProgress(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	summary, err := session.StoryProgress(c.Param("story_id"))
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "story not found"})
			return
		}
		h.logger.Error("Failed to compute story progress", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// StartStory начинает прохождение истории с первой сцены.
func (h *GameplayHandler) StartStory(c *gin.Context) {
	var req StartStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	session.StartStory(c.Request.Context(), req.StoryID)
	c.JSON(http.StatusOK, session.Snapshot())
}

// MakeChoice применяет вариант выбора текущей сцены.
func (h *GameplayHandler) MakeChoice(c *gin.Context) {
	var req MakeChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body"})
		return
	}

	session, ok := h.session(c)
	if !ok {
		return
	}

	session.MakeChoice(c.Request.Context(), req.OptionID)
	c.JSON(http.StatusOK, session.Snapshot())
}

// RestartStory заново начинает текущую историю.
func (h *GameplayHandler) RestartStory(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.RestartStory(c.Request.Context())
	c.JSON(http.StatusOK, session.Snapshot())
}

// ExitToHome возвращает игрока на главный экран.
func (h *GameplayHandler) ExitToHome(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	session.ExitToHome()
	c.JSON(http.StatusOK, session.Snapshot())
}

// GetGameState возвращает снапшот транзиентного состояния сессии.
func (h *GameplayHandler) GetGameState(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// GetPlayerStats возвращает сводную статистику игрока по каталогу.
func (h *GameplayHandler) GetPlayerStats(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stats.PlayerStats(h.catalog.List(), session.Progress()))
}

// session извлекает playerID из контекста и возвращает сессию игрока.
// При ошибке сам пишет ответ и возвращает ok=false.
func (h *GameplayHandler) session(c *gin.Context) (*engine.Session, bool) {
	playerID, ok := middleware.PlayerIDFromContext(c)
	if !ok || playerID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
		return nil, false
	}

	session, err := h.hub.Session(c.Request.Context(), playerID)
	if err != nil {
		h.logger.Error("Failed to acquire game session", zap.Error(err), zap.Stringer("playerID", playerID))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal server error"})
		return nil, false
	}
	return session, true
}
