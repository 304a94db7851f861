package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.GameEventPublisher = (*RabbitMQGameEventPublisher)(nil)

// RabbitMQGameEventPublisher публикует игровые события в durable-очередь
// RabbitMQ. Предполагается, что соединение уже установлено и переподключения
// управляются внешним кодом.
type RabbitMQGameEventPublisher struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQGameEventPublisher создает издателя игровых событий и объявляет
// очередь (идемпотентно: существующая очередь переиспользуется).
func NewRabbitMQGameEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQGameEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	log := logger.Named("GameEventPublisher")

	ch, err := conn.Channel()
	if err != nil {
		log.Error("Failed to open a channel", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	// Durable очередь: события переживают рестарт брокера
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		_ = ch.Close()
		log.Error("Failed to declare queue", zap.Error(err), zap.String("queue", queueName))
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}

	log.Info("Game events queue declared", zap.String("queue", queueName))
	return &RabbitMQGameEventPublisher{conn: conn, ch: ch, queueName: queueName, logger: log}, nil
}

// PublishGameEvent публикует событие в очередь. Ошибка публикации не должна
// ронять геймплей - вызывающая сторона логирует и продолжает.
func (p *RabbitMQGameEventPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal game event", zap.Error(err), zap.String("type", event.Type))
		return fmt.Errorf("failed to marshal game event: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",          // exchange (default)
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
			MessageId:    event.ID.String(),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish game event", zap.Error(err), zap.String("type", event.Type))
		return fmt.Errorf("failed to publish game event: %w", err)
	}

	p.logger.Debug("Game event published", zap.String("type", event.Type), zap.String("eventID", event.ID.String()))
	return nil
}

// Close закрывает канал RabbitMQ.
func (p *RabbitMQGameEventPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
