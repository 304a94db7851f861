package mocks

import (
	"context"

	"quickstory-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock ProgressRepository
type ProgressRepository struct {
	mock.Mock
}

func (m *ProgressRepository) Get(ctx context.Context, playerID uuid.UUID) (*models.UserProgress, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProgress), args.Error(1)
}

func (m *ProgressRepository) Save(ctx context.Context, playerID uuid.UUID, progress *models.UserProgress) error {
	args := m.Called(ctx, playerID, progress)
	return args.Error(0)
}

// Mock StoryCatalog
type StoryCatalog struct {
	mock.Mock
}

func (m *StoryCatalog) List() []*models.Story {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*models.Story)
}

func (m *StoryCatalog) FindByID(storyID string) (*models.Story, error) {
	args := m.Called(storyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Story), args.Error(1)
}

// Mock GameEventPublisher
type GameEventPublisher struct {
	mock.Mock
}

func (m *GameEventPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
