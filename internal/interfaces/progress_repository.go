package interfaces

import (
	"context"

	"quickstory-server/internal/models"

	"github.com/google/uuid"
)

// ProgressRepository defines the interface for the durable player progress store.
// The stored value is a single versioned UserProgress blob per player; Save is
// always a full atomic replace (write-through, no partial writes).
//
//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
type ProgressRepository interface {
	// Get loads the progress record for a player.
	// Returns models.ErrNotFound if nothing was persisted yet. A corrupt
	// stored payload is logged, discarded and reported as models.ErrNotFound
	// so that startup never crashes on bad data.
	Get(ctx context.Context, playerID uuid.UUID) (*models.UserProgress, error)

	// Save overwrites the stored progress blob for a player.
	Save(ctx context.Context, playerID uuid.UUID, progress *models.UserProgress) error
}
