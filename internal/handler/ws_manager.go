package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/middleware"
	"quickstory-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CORS для игровых клиентов проверяется на HTTP-слое
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ClientNotifier = (*GameManager)(nil)

// wsClient - одно WebSocket соединение игрока.
type wsClient struct {
	playerID uuid.UUID
	conn     *websocket.Conn
	send     chan []byte
}

// GameManager управляет активными WebSocket соединениями и доставляет
// realtime-кадры (тики таймера, игровые события) подключенным игрокам.
// Для каждого игрока держится не более одного соединения.
type GameManager struct {
	clients    map[uuid.UUID]*wsClient
	register   chan *wsClient
	unregister chan uuid.UUID
	mu         sync.RWMutex
	verifier   *middleware.JWTVerifier
	logger     *zap.Logger
}

// NewGameManager создает и запускает менеджер соединений.
func NewGameManager(verifier *middleware.JWTVerifier, logger *zap.Logger) *GameManager {
	m := &GameManager{
		clients:    make(map[uuid.UUID]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan uuid.UUID),
		verifier:   verifier,
		logger:     logger.Named("GameManager"),
	}
	go m.run()
	return m
}

// run - основной цикл регистрации/дерегистрации клиентов.
func (m *GameManager) run() {
	m.logger.Info("GameManager started")
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			// Второе соединение того же игрока вытесняет первое
			if oldClient, ok := m.clients[client.playerID]; ok {
				m.logger.Info("Closing previous connection", zap.Stringer("playerID", client.playerID))
				close(oldClient.send)
				_ = oldClient.conn.Close()
			}
			m.clients[client.playerID] = client
			m.mu.Unlock()
			m.logger.Info("Client registered", zap.Stringer("playerID", client.playerID))

		case playerID := <-m.unregister:
			m.mu.Lock()
			if client, ok := m.clients[playerID]; ok {
				delete(m.clients, playerID)
				close(client.send)
				m.logger.Info("Client unregistered", zap.Stringer("playerID", playerID))
			}
			m.mu.Unlock()
		}
	}
}

// NotifyTick отправляет игроку кадр тика таймера активной сцены.
// Вызывается горутиной таймера; оффлайн-игрок - no-op.
func (m *GameManager) NotifyTick(playerID uuid.UUID, remaining float64) {
	frame := TickFrame{Type: FrameTypeTick, TimeRemaining: remaining}
	m.sendFrame(playerID, frame)
}

// NotifyGameEvent отправляет игроку кадр игрового события.
func (m *GameManager) NotifyGameEvent(playerID uuid.UUID, event models.GameEvent) {
	frame := EventFrame{Type: frameTypeFor(event.Type), Event: event}
	m.sendFrame(playerID, frame)
}

func (m *GameManager) sendFrame(playerID uuid.UUID, frame any) {
	m.mu.RLock()
	client, ok := m.clients[playerID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(frame)
	if err != nil {
		m.logger.Error("Failed to marshal ws frame", zap.Error(err))
		return
	}

	select {
	case client.send <- data:
	default:
		// Очередь переполнена: клиент не успевает читать, кадр отбрасывается
		m.logger.Warn("Send queue full, dropping frame", zap.Stringer("playerID", playerID))
	}
}

// ServeWS обрабатывает запрос на установку WebSocket соединения.
// Идентификация: query-параметр token (JWT) либо device_id, как и на
// HTTP-слое. Браузерный WebSocket API не позволяет ставить заголовки.
func (m *GameManager) ServeWS(c *gin.Context) {
	playerID, ok := m.resolvePlayer(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader уже ответил клиенту сам
		m.logger.Error("Failed to upgrade connection", zap.Error(err), zap.Stringer("playerID", playerID))
		return
	}

	m.logger.Info("WebSocket connection established", zap.Stringer("playerID", playerID))

	client := &wsClient{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, 256),
	}
	m.register <- client

	log := m.logger.With(zap.Stringer("playerID", playerID))
	go client.writePump(log)
	go client.readPump(m, log)
}

func (m *GameManager) resolvePlayer(c *gin.Context) (uuid.UUID, bool) {
	if tokenString := c.Query("token"); tokenString != "" {
		claims, err := m.verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			m.logger.Warn("WS auth: invalid token", zap.Error(err))
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
			return uuid.Nil, false
		}
		return claims.UserID, true
	}

	if deviceID := c.Query("device_id"); deviceID != "" {
		return middleware.PlayerIDFromDevice(deviceID), true
	}

	m.logger.Warn("WS auth: missing credentials")
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Missing token"})
	return uuid.Nil, false
}

// readPump откачивает входящие сообщения. Клиент по протоколу ничего не шлет,
// но откачка нужна для обработки pong и закрытия.
func (c *wsClient) readPump(m *GameManager, logger *zap.Logger) {
	defer func() {
		m.unregister <- c.playerID
		_ = c.conn.Close()
		logger.Debug("readPump finished")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		logger.Warn("Received unexpected message from client (ignored)", zap.ByteString("message", message))
	}
}

// writePump откачивает кадры из канала send в соединение.
func (c *wsClient) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		logger.Debug("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("Failed to write frame", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
