package repository

import "context"

// Repository defines the basic CRUD operations shared by every collection.
// Entities are keyed by opaque string identifiers generated on first save.
type Repository[T any] interface {
	// Save creates the entity when its ID is empty, updates it otherwise.
	// Returns the canonical stored record including generated id/timestamps.
	Save(ctx context.Context, entity T) (T, error)

	// FindByID retrieves an entity by its ID
	// Returns ErrNotFound if the entity doesn't exist
	FindByID(ctx context.Context, id string) (T, error)

	// FindAll retrieves all entities ordered by creation time, newest first
	FindAll(ctx context.Context) ([]T, error)

	// DeleteByID deletes an entity by its ID
	// Returns ErrNotFound if the entity doesn't exist
	DeleteByID(ctx context.Context, id string) error

	// ExistsByID checks if an entity exists by its ID
	ExistsByID(ctx context.Context, id string) (bool, error)
}
