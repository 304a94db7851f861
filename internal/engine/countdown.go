package engine

import (
	"sync"
	"time"

	"quickstory-server/internal/models"

	"go.uber.org/zap"
)

const (
	// SceneDuration - фиксированное время на принятие решения в сцене.
	SceneDuration = 10 * time.Second
	// TickInterval - шаг декремента таймера. Тикаем каждые 100ms, а не раз в
	// секунду, чтобы клиент мог плавно анимировать обратный отсчет.
	TickInterval = 100 * time.Millisecond
)

// Countdown ведет единственный активный таймер, привязанный к текущей
// не-концовочной сцене. По достижении нуля переходит в неактивное состояние
// и ровно один раз вызывает onExpire с ID варианта по умолчанию
// (edge-triggered: последующие тики - no-op до следующей активации).
//
// Гарантия взаимного исключения с ручным выбором обеспечивается на уровне
// сессии: Cancel() синхронно останавливает таймер до применения любого
// выбора, а устаревший onExpire отсеивается проверкой поколения таймера.
type Countdown struct {
	mu        sync.Mutex
	duration  time.Duration
	tick      time.Duration
	remaining float64
	active    bool
	stop      chan struct{}
	onTick    func(remaining float64)
	logger    *zap.Logger
}

// NewCountdown создает контроллер таймера. onTick (опционально) вызывается
// на каждом тике с остатком времени в дробных секундах.
func NewCountdown(duration, tick time.Duration, onTick func(remaining float64), logger *zap.Logger) *Countdown {
	if logger == nil {
		logger = zap.NewNop()
	}
	if duration <= 0 {
		duration = SceneDuration
	}
	if tick <= 0 {
		tick = TickInterval
	}
	return &Countdown{
		duration: duration,
		tick:     tick,
		onTick:   onTick,
		logger:   logger.Named("Countdown"),
	}
}

// Activate запускает отсчет для сцены. Для концовок таймер остается
// неактивным (остаток времени при этом сбрасывается на полную длительность).
// Повторная активация отменяет предыдущий отсчет.
func (c *Countdown) Activate(scene *models.Scene, onExpire func(defaultOptionID string)) {
	c.mu.Lock()
	c.stopLocked()
	c.remaining = c.duration.Seconds()

	if scene == nil || scene.IsEnding {
		c.mu.Unlock()
		return
	}

	defaultOption := scene.DefaultOption()
	if defaultOption == nil {
		// Дефект авторинга: не-концовка без вариантов. Каталог отлавливает
		// это при загрузке, здесь только защищаемся.
		c.logger.Error("Scene has no default option, countdown stays idle", zap.String("sceneID", scene.ID))
		c.mu.Unlock()
		return
	}

	stop := make(chan struct{})
	c.stop = stop
	c.active = true
	c.mu.Unlock()

	go c.run(stop, defaultOption.ID, onExpire)
}

// Cancel синхронно останавливает отсчет без вызова onExpire.
// Идемпотентен: остановка неактивного таймера - no-op.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// Reset останавливает отсчет и возвращает остаток к полной длительности.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.remaining = c.duration.Seconds()
}

// Remaining возвращает остаток времени в дробных секундах (UI показывает
// floor до целых секунд).
func (c *Countdown) Remaining() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining < 0 {
		return 0
	}
	return c.remaining
}

// Active сообщает, идет ли отсчет.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.active = false
}

func (c *Countdown) run(stop chan struct{}, defaultOptionID string, onExpire func(string)) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			// Таймер могли отменить между тиком и захватом мьютекса
			if !c.active || c.stop != stop {
				c.mu.Unlock()
				return
			}
			c.remaining -= c.tick.Seconds()
			remaining := c.remaining
			expired := remaining <= 0
			if expired {
				// Деактивируемся ДО вызова onExpire: дальнейшие тики - no-op
				c.active = false
				c.stop = nil
				remaining = 0
			}
			onTick := c.onTick
			c.mu.Unlock()

			if onTick != nil {
				onTick(remaining)
			}
			if expired {
				onExpire(defaultOptionID)
				return
			}
		}
	}
}
