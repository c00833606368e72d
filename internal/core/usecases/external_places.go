package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/geospatial"
	"github.com/samirrijal/spotfinder/internal/pkg/metrics"
)

// Result caps per external search mode.
const (
	StructuredLimit = 20
	DiscoverLimit   = 60
	FreeTextLimit   = 15
)

// ExternalConfig configures ExternalPlaces.
type ExternalConfig struct {
	Region   domain.Bounds
	Fallback domain.GeoPoint
	// Timeout bounds each provider call.
	Timeout time.Duration
	// CacheTTL is the lifetime in seconds of a cached non-empty result.
	// Empty results are kept for a fifth of it.
	CacheTTL int
}

// DefaultExternalConfig returns the contiguous-US configuration.
func DefaultExternalConfig() ExternalConfig {
	return ExternalConfig{
		Region:   geospatial.RegionBounds,
		Fallback: geospatial.DefaultCenter,
		Timeout:  8 * time.Second,
		CacheTTL: 600,
	}
}

// ExternalPlaces is the best-effort OpenStreetMap enrichment layer. Its
// methods never fail: provider errors yield an empty slice.
type ExternalPlaces struct {
	area  ports.POIProvider
	text  ports.TextPlaceSearcher
	cache ports.CacheService
	cfg   ExternalConfig
	log   *slog.Logger
}

// NewExternalPlaces creates a new ExternalPlaces. cache may be nil.
func NewExternalPlaces(area ports.POIProvider, text ports.TextPlaceSearcher, cache ports.CacheService, cfg ExternalConfig, log *slog.Logger) *ExternalPlaces {
	return &ExternalPlaces{area: area, text: text, cache: cache, cfg: cfg, log: log}
}

// SearchStructured queries the area around center for category places. When
// the area query yields nothing it falls back to a free-text search near the
// same center.
func (e *ExternalPlaces) SearchStructured(ctx context.Context, text, category string, center domain.GeoPoint, radiusKm float64) []domain.Place {
	center = e.clampCenter(ctx, center)
	q := ports.POIQuery{
		Bounds:        e.areaBounds(center, radiusKm),
		Category:      category,
		CountryFilter: true,
		Limit:         StructuredLimit,
	}

	places := e.searchArea(ctx, q)
	if len(places) > 0 {
		return places
	}
	return e.SearchFreeText(ctx, text, category, &center)
}

// Discover returns baseline places around center for map population.
func (e *ExternalPlaces) Discover(ctx context.Context, category string, center domain.GeoPoint, radiusKm float64) []domain.Place {
	center = e.clampCenter(ctx, center)
	return e.searchArea(ctx, ports.POIQuery{
		Bounds:   e.areaBounds(center, radiusKm),
		Category: category,
		Limit:    DiscoverLimit,
	})
}

// SearchFreeText runs a country-restricted text search, optionally biased
// towards near.
func (e *ExternalPlaces) SearchFreeText(ctx context.Context, text, category string, near *domain.GeoPoint) []domain.Place {
	if e.text == nil || strings.TrimSpace(text) == "" {
		return nil
	}
	q := ports.TextQuery{Text: text, Category: category, Near: near, Limit: FreeTextLimit}
	key := fmt.Sprintf("osm:text:%s:%s", strings.ToLower(text), category)
	if near != nil {
		key += fmt.Sprintf(":%.4f:%.4f", near.Lat, near.Lon)
	}
	return e.call(ctx, "nominatim", key, FreeTextLimit, func(ctx context.Context) ([]domain.Place, error) {
		return e.text.SearchText(ctx, q)
	})
}

func (e *ExternalPlaces) searchArea(ctx context.Context, q ports.POIQuery) []domain.Place {
	if e.area == nil || q.Bounds.Empty() {
		return nil
	}
	key := fmt.Sprintf("osm:area:%s:%t:%d:%.4f:%.4f:%.4f:%.4f",
		q.Category, q.CountryFilter, q.Limit, q.Bounds.South, q.Bounds.West, q.Bounds.North, q.Bounds.East)
	return e.call(ctx, "overpass", key, q.Limit, func(ctx context.Context) ([]domain.Place, error) {
		return e.area.SearchArea(ctx, q)
	})
}

// call runs one provider request with the per-call timeout, the cache, the
// region re-check and the result cap applied.
func (e *ExternalPlaces) call(ctx context.Context, provider, key string, limit int, fn func(context.Context) ([]domain.Place, error)) []domain.Place {
	if cached, ok := e.cached(ctx, key); ok {
		return cached
	}

	callCtx := ctx
	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	places, err := fn(callCtx)
	metrics.ObserveExternal(provider, start, len(places), err)
	if err != nil {
		e.log.WarnContext(ctx, "external provider failed, contributing no results",
			"provider", provider, "error", fmt.Errorf("%w: %w", domain.ErrEnrichmentUnavailable, err))
		return nil
	}

	out := make([]domain.Place, 0, min(len(places), limit))
	for _, p := range places {
		if len(out) == limit {
			break
		}
		if !geospatial.IsInRegion(p.Location, e.cfg.Region) {
			continue
		}
		p.Source = domain.SourceExternal
		out = append(out, p)
	}

	e.store(ctx, key, out)
	return out
}

func (e *ExternalPlaces) clampCenter(ctx context.Context, c domain.GeoPoint) domain.GeoPoint {
	clamped := geospatial.ClampToRegion(c, e.cfg.Region, e.cfg.Fallback)
	if clamped != c {
		e.log.InfoContext(ctx, "center outside operating region, using fallback",
			"lat", c.Lat, "lng", c.Lon, "error", domain.ErrInvalidRegion)
	}
	return clamped
}

func (e *ExternalPlaces) areaBounds(center domain.GeoPoint, radiusKm float64) domain.Bounds {
	return geospatial.ClampBounds(geospatial.BoundingBox(center, radiusKm), e.cfg.Region)
}

func (e *ExternalPlaces) cached(ctx context.Context, key string) ([]domain.Place, bool) {
	if e.cache == nil {
		return nil, false
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheMisses.WithLabelValues("external").Inc()
		return nil, false
	}
	var places []domain.Place
	if err := json.Unmarshal(data, &places); err != nil {
		metrics.CacheMisses.WithLabelValues("external").Inc()
		e.log.WarnContext(ctx, "evicting undecodable cache entry", "key", key, "error", err)
		_ = e.cache.Delete(ctx, key)
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("external").Inc()
	return places, true
}

func (e *ExternalPlaces) store(ctx context.Context, key string, places []domain.Place) {
	if e.cache == nil || e.cfg.CacheTTL <= 0 {
		return
	}
	ttl := e.cfg.CacheTTL
	if len(places) == 0 {
		ttl = max(ttl/5, 1)
	}
	if data, err := json.Marshal(places); err == nil {
		_ = e.cache.Set(ctx, key, data, ttl)
	}
}
