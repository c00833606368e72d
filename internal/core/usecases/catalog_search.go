package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/geospatial"
)

// CatalogLimit caps a single catalog query. Rows are taken newest first, so
// the cap applies before the radius cutoff.
const CatalogLimit = 200

// CatalogSearch runs radius searches against the first-party catalog.
type CatalogSearch struct {
	places ports.PlaceRepository
}

// NewCatalogSearch creates a new CatalogSearch.
func NewCatalogSearch(places ports.PlaceRepository) *CatalogSearch {
	return &CatalogSearch{places: places}
}

// CatalogQuery is the input of a catalog search. RadiusKm is only used when
// Center is set.
type CatalogQuery struct {
	Text      string
	Category  string
	Amenities []string
	Center    *domain.GeoPoint
	RadiusKm  float64
}

// Search returns matching catalog places. When a center is given, each row
// carries its haversine distance and rows beyond RadiusKm are dropped. Row
// order is the store's order. Any store error aborts the search.
func (s *CatalogSearch) Search(ctx context.Context, q CatalogQuery) ([]domain.Place, error) {
	filter := ports.CatalogFilter{
		Text:      q.Text,
		Category:  q.Category,
		Amenities: q.Amenities,
		Limit:     CatalogLimit,
	}
	if q.Center != nil {
		box := geospatial.BoundingBox(*q.Center, q.RadiusKm)
		filter.Bounds = &box
	}

	rows, err := s.places.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogQuery, err)
	}
	if q.Center == nil {
		return rows, nil
	}
	return withinRadius(rows, *q.Center, q.RadiusKm), nil
}

// Nearby returns catalog places within radiusKm of center, closest first.
func (s *CatalogSearch) Nearby(ctx context.Context, center domain.GeoPoint, radiusKm float64) ([]domain.Place, error) {
	places, err := s.Search(ctx, CatalogQuery{Center: &center, RadiusKm: radiusKm})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(places, func(i, j int) bool {
		return *places[i].DistanceKm < *places[j].DistanceKm
	})
	return places, nil
}

// GetByID returns a single catalog place.
func (s *CatalogSearch) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	p, err := s.places.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// withinRadius attaches distances and keeps rows inside the circle.
func withinRadius(rows []domain.Place, center domain.GeoPoint, radiusKm float64) []domain.Place {
	out := make([]domain.Place, 0, len(rows))
	for _, p := range rows {
		d := geospatial.Distance(center, p.Location)
		if d > radiusKm {
			continue
		}
		setDistance(&p, d)
		out = append(out, p)
	}
	return out
}

func setDistance(p *domain.Place, km float64) {
	mi := geospatial.KmToMiles(km)
	p.DistanceKm = &km
	p.DistanceMiles = &mi
}
