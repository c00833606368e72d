package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/geospatial"
	"github.com/samirrijal/spotfinder/internal/pkg/metrics"
	"github.com/samirrijal/spotfinder/internal/pkg/telemetry"
)

// SearchConfig tunes the orchestrator.
type SearchConfig struct {
	// RecenterRadiusKm replaces the query radius once the text is resolved
	// to a place.
	RecenterRadiusKm float64
	// PublishTimeout bounds the search event publish.
	PublishTimeout time.Duration
}

// DefaultSearchConfig returns the stock orchestrator settings.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{RecenterRadiusKm: 25, PublishTimeout: 2 * time.Second}
}

// SearchService blends catalog and OpenStreetMap results for one query. It
// keeps no per-request state; a single instance serves concurrent requests.
type SearchService struct {
	catalog  *CatalogSearch
	resolver *PlaceResolver
	external *ExternalPlaces
	events   ports.EventPublisher
	cfg      SearchConfig
	log      *slog.Logger
}

// NewSearchService creates a new SearchService. resolver, external and
// events may be nil to disable the matching stage.
func NewSearchService(
	catalog *CatalogSearch,
	resolver *PlaceResolver,
	external *ExternalPlaces,
	events ports.EventPublisher,
	cfg SearchConfig,
	log *slog.Logger,
) *SearchService {
	return &SearchService{
		catalog:  catalog,
		resolver: resolver,
		external: external,
		events:   events,
		cfg:      cfg,
		log:      log,
	}
}

// Search returns catalog places first, followed by external places that do
// not duplicate them. Only a catalog failure is returned as an error.
func (s *SearchService) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Place, error) {
	start := time.Now()
	q = q.Normalize()
	radiusKm := geospatial.MilesToKm(q.RadiusMiles)

	var center *domain.GeoPoint
	if q.HasCenter() {
		c := *q.Center
		center = &c
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSearch)
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrQueryText, q.Text),
		attribute.String(telemetry.AttrCategory, q.Category),
		attribute.Float64(telemetry.AttrRadiusKm, radiusKm),
	)

	catalog, err := s.searchCatalog(ctx, CatalogQuery{
		Text:      q.Text,
		Category:  q.Category,
		Amenities: q.Amenities,
		Center:    center,
		RadiusKm:  radiusKm,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog query failed")
		return nil, err
	}

	var (
		external   []domain.Place
		recentered bool
		mode       = "catalog"
	)

	switch {
	case q.Text != "":
		mode = "text"
		activeCenter, activeRadius := center, radiusKm

		if geo := s.resolve(ctx, q.Text); geo != nil {
			c := geo.Location
			activeCenter, activeRadius = &c, s.cfg.RecenterRadiusKm
			recentered = true
			metrics.Recenters.Inc()
			s.log.InfoContext(ctx, "query names a place, re-centering",
				"text", q.Text, "lat", c.Lat, "lng", c.Lon, "class", geo.Class)

			// the text named the area, so it no longer filters catalog rows
			catalog, err = s.searchCatalog(ctx, CatalogQuery{
				Category:  q.Category,
				Amenities: q.Amenities,
				Center:    activeCenter,
				RadiusKm:  activeRadius,
			})
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "catalog query failed")
				return nil, err
			}
		}

		external = s.merge(ctx, s.searchExternal(ctx, q, activeCenter, activeRadius), catalog, MatchLoose, activeCenter)

	case q.Discover && center != nil:
		mode = "discover"
		var found []domain.Place
		if s.external != nil {
			dctx, dspan := telemetry.Tracer().Start(ctx, telemetry.SpanDiscover)
			found = s.external.Discover(dctx, q.Category, *center, radiusKm)
			dspan.SetAttributes(attribute.Int(telemetry.AttrResultCount, len(found)))
			dspan.End()
		}
		external = s.merge(ctx, found, catalog, MatchStrict, center)
	}

	results := make([]domain.Place, 0, len(catalog)+len(external))
	results = append(results, catalog...)
	results = append(results, external...)

	elapsed := time.Since(start)
	metrics.SearchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	metrics.SearchResults.WithLabelValues(string(domain.SourceCatalog)).Observe(float64(len(catalog)))
	metrics.SearchResults.WithLabelValues(string(domain.SourceExternal)).Observe(float64(len(external)))
	span.SetAttributes(
		attribute.Bool(telemetry.AttrRecentered, recentered),
		attribute.Int(telemetry.AttrResultCount, len(results)),
	)

	s.publish(ctx, &domain.SearchEvent{
		ID:            uuid.NewString(),
		Text:          q.Text,
		Category:      q.Category,
		Center:        center,
		RadiusMiles:   q.RadiusMiles,
		Recentered:    recentered,
		Discover:      q.Discover,
		CatalogCount:  len(catalog),
		ExternalCount: len(external),
		DurationMs:    elapsed.Milliseconds(),
		Timestamp:     time.Now().UTC(),
	})

	return results, nil
}

// Nearby returns catalog places within radiusMiles of center, closest first.
func (s *SearchService) Nearby(ctx context.Context, center domain.GeoPoint, radiusMiles float64) ([]domain.Place, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanNearby)
	defer span.End()

	q := domain.SearchQuery{RadiusMiles: radiusMiles}.Normalize()
	places, err := s.catalog.Nearby(ctx, center, geospatial.MilesToKm(q.RadiusMiles))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return places, nil
}

// GetByID returns a catalog place. External ids yield a read-only stub
// since external records are never stored.
func (s *SearchService) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if domain.IsExternalID(id) {
		return &domain.Place{
			ID:          id,
			Source:      domain.SourceExternal,
			Name:        "External Location",
			Description: "Details for OpenStreetMap places are limited to the data shown on the map.",
			Amenities:   []string{},
			Images:      []string{},
		}, nil
	}
	return s.catalog.GetByID(ctx, id)
}

func (s *SearchService) searchCatalog(ctx context.Context, q CatalogQuery) ([]domain.Place, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanCatalog)
	defer span.End()

	places, err := s.catalog.Search(ctx, q)
	if err != nil {
		span.RecordError(err)
		s.log.ErrorContext(ctx, "catalog search failed", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int(telemetry.AttrResultCount, len(places)))
	return places, nil
}

// resolve returns the geocode result when the text should move the search.
func (s *SearchService) resolve(ctx context.Context, text string) *domain.GeocodeResult {
	if s.resolver == nil || !s.resolver.Eligible(text) {
		return nil
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGeocode)
	defer span.End()

	geo := s.resolver.Resolve(ctx, text)
	if !s.resolver.ShouldRecenter(geo) {
		return nil
	}
	return geo
}

func (s *SearchService) searchExternal(ctx context.Context, q domain.SearchQuery, center *domain.GeoPoint, radiusKm float64) []domain.Place {
	if s.external == nil {
		return nil
	}
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanExternal)
	defer span.End()

	var found []domain.Place
	if center != nil {
		span.SetAttributes(attribute.String(telemetry.AttrExternalMode, "structured"))
		found = s.external.SearchStructured(ctx, q.Text, q.Category, *center, radiusKm)
	} else {
		span.SetAttributes(attribute.String(telemetry.AttrExternalMode, "free_text"))
		found = s.external.SearchFreeText(ctx, q.Text, q.Category, nil)
	}
	span.SetAttributes(attribute.Int(telemetry.AttrResultCount, len(found)))
	return found
}

// merge drops external places that duplicate catalog entries and attaches
// distances from center to the survivors.
func (s *SearchService) merge(ctx context.Context, found, catalog []domain.Place, mode MatchMode, center *domain.GeoPoint) []domain.Place {
	if len(found) == 0 {
		return nil
	}
	_, span := telemetry.Tracer().Start(ctx, telemetry.SpanDeduplicate)
	defer span.End()

	kept := SuppressDuplicates(found, catalog, mode)
	if dropped := len(found) - len(kept); dropped > 0 {
		metrics.DuplicatesSuppressed.WithLabelValues(mode.String()).Add(float64(dropped))
	}
	if center != nil {
		for i := range kept {
			setDistance(&kept[i], geospatial.Distance(*center, kept[i].Location))
		}
	}
	return kept
}

func (s *SearchService) publish(ctx context.Context, ev *domain.SearchEvent) {
	if s.events == nil {
		return
	}
	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}
	if err := s.events.PublishSearchCompleted(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "publish search event failed", "search_id", ev.ID, "error", err)
	}
}
