package telemetry

// Span names for the search pipeline.
const (
	SpanSearch        = "search"
	SpanCatalog       = "search.catalog"
	SpanGeocode       = "search.geocode"
	SpanExternal      = "search.external"
	SpanDiscover      = "search.discover"
	SpanDeduplicate   = "search.deduplicate"
	SpanNearby        = "search.nearby"
	SpanOverpass      = "osm.overpass"
	SpanNominatim     = "osm.nominatim"
	SpanCatalogSelect = "postgres.locations.select"
)

// Span attribute keys.
const (
	AttrQueryText    = "search.text"
	AttrCategory     = "search.category"
	AttrRadiusKm     = "search.radius_km"
	AttrRecentered   = "search.recentered"
	AttrResultCount  = "search.results"
	AttrExternalMode = "search.external_mode"
)
