package content

import "context"

// Repository reads published content rows. Implementations must return
// pages ordered by ascending id so a paging sweep never skips or
// duplicates rows.
type Repository interface {
	// CountPublished returns the number of published rows for one variant.
	CountPublished(ctx context.Context, entity EntityType) (int64, error)

	// ListPublished returns one page of published rows with relations
	// populated, ordered by id ascending.
	ListPublished(ctx context.Context, entity EntityType, limit, offset int) ([]Record, error)

	// GetByID returns a single row with relations populated.
	GetByID(ctx context.Context, entity EntityType, id int64) (Record, error)
}
