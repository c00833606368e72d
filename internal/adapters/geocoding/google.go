package geocoding

import (
	"context"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

// GoogleAPIClient is the subset of *maps.Client used by GoogleProvider.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// GoogleProvider geocodes with the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient
	region string
	log    *slog.Logger
}

// NewGoogleProvider wraps client. Results are biased to the US.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, region: "us", log: log}
}

// Google reports no relevance score, so the location precision stands in
// for one on the same 0..1 scale Nominatim uses.
var locationTypeImportance = map[string]float64{
	"ROOFTOP":            0.9,
	"RANGE_INTERPOLATED": 0.75,
	"GEOMETRIC_CENTER":   0.6,
	"APPROXIMATE":        0.5,
}

const partialMatchPenalty = 0.3

// Geocode returns the top match for query, or nil when nothing matched.
func (gp *GoogleProvider) Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	gp.log.DebugContext(ctx, "geocoding using google maps", "query", query)

	results, err := gp.client.Geocode(ctx, &maps.GeocodingRequest{Address: query, Region: gp.region})
	if err != nil {
		return nil, fmt.Errorf("google geocode: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	top := results[0]
	importance := locationTypeImportance[top.Geometry.LocationType]
	if top.PartialMatch {
		importance -= partialMatchPenalty
	}

	return &domain.GeocodeResult{
		Location:    domain.GeoPoint{Lat: top.Geometry.Location.Lat, Lon: top.Geometry.Location.Lng},
		Class:       classFromTypes(top.Types),
		Importance:  max(importance, 0),
		DisplayName: top.FormattedAddress,
	}, nil
}

func classFromTypes(types []string) domain.PlaceClass {
	for _, t := range types {
		switch t {
		case "locality":
			return domain.PlaceClassCity
		case "administrative_area_level_1":
			return domain.PlaceClassState
		case "administrative_area_level_2":
			return domain.PlaceClassCounty
		case "sublocality", "neighborhood", "postal_town":
			return domain.PlaceClassTown
		}
	}
	return domain.PlaceClassOther
}
