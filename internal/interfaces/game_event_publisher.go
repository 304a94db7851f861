package interfaces

import (
	"context"

	"quickstory-server/internal/models"

	"github.com/google/uuid"
)

// GameEventPublisher is the abstract sink for structured engine events
// (scene_entered, choice_made, ending_reached, achievement_granted).
// Publish failures must never fail gameplay - callers log and continue.
//
//go:generate mockery --name GameEventPublisher --output ./mocks --outpkg mocks --case=underscore
type GameEventPublisher interface {
	PublishGameEvent(ctx context.Context, event models.GameEvent) error
}

// ClientNotifier delivers realtime frames to a connected player, if any.
// Implementations must be safe to call from the countdown goroutine.
type ClientNotifier interface {
	// NotifyTick pushes the fractional remaining seconds of the active countdown.
	NotifyTick(playerID uuid.UUID, remaining float64)

	// NotifyGameEvent pushes a game event frame.
	NotifyGameEvent(playerID uuid.UUID, event models.GameEvent)
}
