package domain

import "time"

// SearchEvent summarises one completed search for activity feeds.
type SearchEvent struct {
	ID            string    `json:"id"`
	Text          string    `json:"text,omitempty"`
	Category      string    `json:"category,omitempty"`
	Center        *GeoPoint `json:"center,omitempty"`
	RadiusMiles   float64   `json:"radius_miles"`
	Recentered    bool      `json:"recentered"`
	Discover      bool      `json:"discover"`
	CatalogCount  int       `json:"catalog_count"`
	ExternalCount int       `json:"external_count"`
	DurationMs    int64     `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}
