package database

import (
	"context"
	"sync"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	"github.com/google/uuid"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ProgressRepository = (*memoryProgressRepository)(nil)

// memoryProgressRepository хранит прогресс в памяти процесса. Используется
// как бэкенд по умолчанию для локального запуска без внешних зависимостей
// и в unit-тестах. Содержимое теряется при рестарте.
type memoryProgressRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.UserProgress
}

// NewMemoryProgressRepository creates an in-process ProgressRepository.
func NewMemoryProgressRepository() interfaces.ProgressRepository {
	return &memoryProgressRepository{
		records: make(map[uuid.UUID]*models.UserProgress),
	}
}

func (r *memoryProgressRepository) Get(_ context.Context, playerID uuid.UUID) (*models.UserProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	progress, ok := r.records[playerID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return progress.Clone(), nil
}

func (r *memoryProgressRepository) Save(_ context.Context, playerID uuid.UUID, progress *models.UserProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[playerID] = progress.Clone()
	return nil
}
