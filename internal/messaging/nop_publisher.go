package messaging

import (
	"context"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.GameEventPublisher = (*NopGameEventPublisher)(nil)

// NopGameEventPublisher - заглушка для окружений без RabbitMQ (локальная
// разработка, юнит-тесты). События просто пишутся в debug-лог.
type NopGameEventPublisher struct {
	logger *zap.Logger
}

// NewNopGameEventPublisher creates a publisher that discards all events.
func NewNopGameEventPublisher(logger *zap.Logger) *NopGameEventPublisher {
	return &NopGameEventPublisher{logger: logger.Named("NopGameEventPublisher")}
}

func (p *NopGameEventPublisher) PublishGameEvent(_ context.Context, event models.GameEvent) error {
	p.logger.Debug("Game event discarded (publisher disabled)", zap.String("type", event.Type))
	return nil
}
