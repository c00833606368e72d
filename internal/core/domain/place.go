package domain

import (
	"math"
	"strings"
	"time"
)

// Source tells where a place record came from.
type Source string

const (
	SourceCatalog  Source = "catalog"
	SourceExternal Source = "external"
)

// ExternalIDPrefix marks records that come from OpenStreetMap. Such records
// are read-only and never written to the catalog.
const ExternalIDPrefix = "osm_"

// IsExternalID reports whether id belongs to an external record.
func IsExternalID(id string) bool {
	return strings.HasPrefix(id, ExternalIDPrefix)
}

// Place is a single search result, either from the catalog or from the
// external POI provider.
type Place struct {
	ID            string    `json:"id"`
	Source        Source    `json:"source"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Address       string    `json:"address"`
	City          string    `json:"city"`
	State         string    `json:"state"`
	Zip           string    `json:"zip,omitempty"`
	Category      string    `json:"category"`
	Location      GeoPoint  `json:"location"`
	Amenities     []string  `json:"amenities"`
	Images        []string  `json:"images"`
	Phone         string    `json:"phone,omitempty"`
	Website       string    `json:"website,omitempty"`
	OpeningHours  string    `json:"opening_hours,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	DistanceKm    *float64  `json:"distance_km,omitempty"`
	DistanceMiles *float64  `json:"distance_miles,omitempty"`
}

// IsExternal reports whether the place is a provider record.
func (p Place) IsExternal() bool {
	return p.Source == SourceExternal
}

// Radius limits in miles accepted at the API boundary.
const (
	DefaultRadiusMiles = 5.0
	MinRadiusMiles     = 0.1
	MaxRadiusMiles     = 50.0
)

// SearchQuery is the input of a single search request.
type SearchQuery struct {
	Text        string
	Category    string
	Amenities   []string
	Center      *GeoPoint
	RadiusMiles float64
	Discover    bool
}

// Normalize trims the free-text fields and applies the default and clamp
// to the radius. A NaN radius counts as absent.
func (q SearchQuery) Normalize() SearchQuery {
	q.Text = strings.TrimSpace(q.Text)
	q.Category = strings.ToLower(strings.TrimSpace(q.Category))
	if q.Category == "all" {
		q.Category = ""
	}
	amenities := q.Amenities[:0:0]
	for _, a := range q.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}
	q.Amenities = amenities
	switch {
	case math.IsNaN(q.RadiusMiles) || q.RadiusMiles <= 0:
		q.RadiusMiles = DefaultRadiusMiles
	case q.RadiusMiles < MinRadiusMiles:
		q.RadiusMiles = MinRadiusMiles
	case q.RadiusMiles > MaxRadiusMiles:
		q.RadiusMiles = MaxRadiusMiles
	}
	return q
}

// HasCenter reports whether the query carries a usable center coordinate.
func (q SearchQuery) HasCenter() bool {
	return q.Center != nil && q.Center.Valid()
}

// PlaceClass is the kind of place a geocoder matched.
type PlaceClass string

const (
	PlaceClassCity    PlaceClass = "city"
	PlaceClassState   PlaceClass = "state"
	PlaceClassCounty  PlaceClass = "county"
	PlaceClassVillage PlaceClass = "village"
	PlaceClassTown    PlaceClass = "town"
	PlaceClassOther   PlaceClass = "other"
)

// ParsePlaceClass maps a provider class or type string onto a PlaceClass.
func ParsePlaceClass(s string) PlaceClass {
	switch c := PlaceClass(strings.ToLower(s)); c {
	case PlaceClassCity, PlaceClassState, PlaceClassCounty, PlaceClassVillage, PlaceClassTown:
		return c
	}
	return PlaceClassOther
}

// GeocodeResult is the outcome of resolving a place name. It lives for a
// single search only.
type GeocodeResult struct {
	Location    GeoPoint   `json:"location"`
	Class       PlaceClass `json:"class"`
	Importance  float64    `json:"importance"`
	DisplayName string     `json:"display_name,omitempty"`
}

// IPLocation is the approximate position of a client address.
type IPLocation struct {
	IP       string   `json:"ip,omitempty"`
	City     string   `json:"city"`
	Region   string   `json:"region"`
	Country  string   `json:"country"`
	Location GeoPoint `json:"location"`
	Fallback bool     `json:"fallback"`
}
