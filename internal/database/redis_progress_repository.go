package database

import (
	"context"
	"encoding/json"
	"fmt"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ProgressRepository = (*redisProgressRepository)(nil)

// redisProgressRepository хранит прогресс игрока как единственный JSON-blob
// под ключом user_progress:{playerID}. SET дает атомарную замену значения
// целиком - частичных записей не бывает.
type redisProgressRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisProgressRepository creates a Redis-backed ProgressRepository.
func NewRedisProgressRepository(client *redis.Client, logger *zap.Logger) interfaces.ProgressRepository {
	return &redisProgressRepository{
		client: client,
		logger: logger.Named("RedisProgressRepo"),
	}
}

func progressKey(playerID uuid.UUID) string {
	return fmt.Sprintf("user_progress:%s", playerID.String())
}

func (r *redisProgressRepository) Get(ctx context.Context, playerID uuid.UUID) (*models.UserProgress, error) {
	key := progressKey(playerID)
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get progress from redis", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to get progress from redis: %w", err)
	}

	progress, err := models.DecodeUserProgress(data)
	if err != nil {
		// Поврежденный payload: логируем, выбрасываем и продолжаем с
		// дефолтами - старт никогда не падает из-за битых данных
		r.logger.Warn("Corrupt progress payload in redis, discarding",
			zap.Error(err),
			zap.String("key", key),
			zap.Int("payloadSize", len(data)),
		)
		return nil, models.ErrNotFound
	}

	r.logger.Debug("Progress loaded from redis", zap.String("key", key))
	return progress, nil
}

func (r *redisProgressRepository) Save(ctx context.Context, playerID uuid.UUID, progress *models.UserProgress) error {
	key := progressKey(playerID)
	data, err := json.Marshal(progress)
	if err != nil {
		r.logger.Error("Failed to marshal progress", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	// Без TTL: прогресс игрока живет, пока его явно не удалят
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		r.logger.Error("Failed to save progress to redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to save progress to redis: %w", err)
	}

	r.logger.Debug("Progress saved to redis", zap.String("key", key))
	return nil
}
