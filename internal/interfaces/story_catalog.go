package interfaces

import "quickstory-server/internal/models"

// StoryCatalog defines read-only access to the preloaded set of story graphs.
// The catalog is immutable after process start; there is no mutation API.
//
//go:generate mockery --name StoryCatalog --output ./mocks --outpkg mocks --case=underscore
type StoryCatalog interface {
	// List returns all stories in catalog order.
	List() []*models.Story

	// FindByID returns a story by its ID.
	// Returns models.ErrStoryNotFound if the catalog has no such story.
	FindByID(storyID string) (*models.Story, error)
}
