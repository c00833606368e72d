package ports

import (
	"context"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

// POIQuery is a structured area query against the external POI provider.
type POIQuery struct {
	Bounds   domain.Bounds
	Category string
	// CountryFilter keeps only features tagged with the operating country
	// or carrying no country tag at all.
	CountryFilter bool
	Limit         int
}

// TextQuery is a free-text place search against the external provider.
type TextQuery struct {
	Text     string
	Category string
	Near     *domain.GeoPoint
	Limit    int
}

// POIProvider runs structured area queries. Elements without a usable name
// or coordinate are dropped by the implementation.
type POIProvider interface {
	SearchArea(ctx context.Context, q POIQuery) ([]domain.Place, error)
}

// TextPlaceSearcher runs free-text place searches restricted to the
// operating country.
type TextPlaceSearcher interface {
	SearchText(ctx context.Context, q TextQuery) ([]domain.Place, error)
}

// Geocoder resolves a place name to its best match. It returns nil and no
// error when nothing matched.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error)
}

// IPLocator resolves a client IP address to an approximate position.
type IPLocator interface {
	Locate(ctx context.Context, ip string) (*domain.IPLocation, error)
}
