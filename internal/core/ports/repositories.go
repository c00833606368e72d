package ports

import (
	"context"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

// CatalogFilter holds the predicates of a catalog query. Empty fields do not
// constrain the result.
type CatalogFilter struct {
	// Text matches name or description, case-insensitively, as a substring.
	Text     string
	Category string
	// Amenities must all be present on a matching record.
	Amenities []string
	// Bounds restricts latitude/longitude columns when set.
	Bounds *domain.Bounds
	Limit  int
}

// PlaceRepository reads catalog places. Implementations order results by
// creation time, newest first.
type PlaceRepository interface {
	Search(ctx context.Context, filter CatalogFilter) ([]domain.Place, error)
	GetByID(ctx context.Context, id string) (*domain.Place, error)
}
