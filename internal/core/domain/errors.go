package domain

import "errors"

var (
	// ErrCatalogQuery is returned when the catalog store rejects or cannot run a query.
	ErrCatalogQuery = errors.New("catalog query failed")
	// ErrEnrichmentUnavailable marks a geocoder or POI provider failure. It is never
	// returned from a search; it only shows up in logs and metrics.
	ErrEnrichmentUnavailable = errors.New("enrichment unavailable")
	// ErrInvalidRegion marks a coordinate outside the operating region.
	ErrInvalidRegion = errors.New("coordinate outside operating region")
	// ErrMalformedExternalRecord marks a provider element without a name or coordinate.
	ErrMalformedExternalRecord = errors.New("malformed external record")
	ErrNotFound                = errors.New("not found")
	ErrInvalidQuery            = errors.New("invalid query")
)
