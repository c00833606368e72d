package usecases_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/core/usecases"
	"github.com/samirrijal/spotfinder/internal/pkg/geospatial"
)

func newExternal(area ports.POIProvider, text ports.TextPlaceSearcher, cache ports.CacheService) *usecases.ExternalPlaces {
	cfg := usecases.DefaultExternalConfig()
	cfg.Timeout = time.Second
	return usecases.NewExternalPlaces(area, text, cache, cfg, quietLogger())
}

func manyPlaces(n int, lat, lon float64) []domain.Place {
	out := make([]domain.Place, n)
	for i := range out {
		out[i] = place("osm_"+string(rune('a'+i%26)), "Spot", lat+float64(i)*1e-4, lon)
	}
	return out
}

func TestExternalPlaces_StructuredClampsOutOfRegionCenter(t *testing.T) {
	area := &mockArea{}
	london := domain.GeoPoint{Lat: 51.5, Lon: -0.12}

	newExternal(area, &mockText{}, nil).SearchStructured(context.Background(), "coffee", "cafe", london, 8)

	require.Len(t, area.queries, 1)
	q := area.queries[0]
	want := geospatial.ClampBounds(geospatial.BoundingBox(geospatial.DefaultCenter, 8), geospatial.RegionBounds)
	assert.Equal(t, want, q.Bounds)
	assert.Equal(t, "cafe", q.Category)
	assert.True(t, q.CountryFilter)
	assert.Equal(t, usecases.StructuredLimit, q.Limit)
}

func TestExternalPlaces_StructuredCapsAndFiltersRegion(t *testing.T) {
	area := &mockArea{
		areaFn: func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) {
			ps := manyPlaces(30, 32.7, -96.8)
			ps[0].Location = domain.GeoPoint{Lat: 51.5, Lon: -0.12}
			return ps, nil
		},
	}
	got := newExternal(area, &mockText{}, nil).SearchStructured(context.Background(), "coffee", "", dallas, 8)

	assert.Len(t, got, usecases.StructuredLimit)
	for _, p := range got {
		assert.True(t, geospatial.IsInRegion(p.Location, geospatial.RegionBounds))
		assert.Equal(t, domain.SourceExternal, p.Source)
	}
}

func TestExternalPlaces_StructuredFallsBackToFreeText(t *testing.T) {
	area := &mockArea{}
	text := &mockText{
		textFn: func(ctx context.Context, q ports.TextQuery) ([]domain.Place, error) {
			return []domain.Place{place("osm_9", "Union Coffee", 32.8, -96.8)}, nil
		},
	}
	got := newExternal(area, text, nil).SearchStructured(context.Background(), "union coffee", "cafe", dallas, 8)

	require.Len(t, got, 1)
	require.Len(t, text.queries, 1)
	assert.Equal(t, "union coffee", text.queries[0].Text)
	require.NotNil(t, text.queries[0].Near)
	assert.Equal(t, dallas, *text.queries[0].Near)
	assert.Equal(t, usecases.FreeTextLimit, text.queries[0].Limit)
}

func TestExternalPlaces_ProviderErrorYieldsEmpty(t *testing.T) {
	area := &mockArea{
		areaFn: func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) { return nil, errBoom },
	}
	text := &mockText{
		textFn: func(ctx context.Context, q ports.TextQuery) ([]domain.Place, error) { return nil, errBoom },
	}
	ext := newExternal(area, text, nil)

	assert.Empty(t, ext.SearchStructured(context.Background(), "coffee", "", dallas, 8))
	assert.Empty(t, ext.Discover(context.Background(), "", dallas, 8))
	assert.Empty(t, ext.SearchFreeText(context.Background(), "coffee", "", nil))
}

func TestExternalPlaces_TimeoutYieldsEmpty(t *testing.T) {
	area := &mockArea{
		areaFn: func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	cfg := usecases.DefaultExternalConfig()
	cfg.Timeout = 20 * time.Millisecond
	ext := usecases.NewExternalPlaces(area, nil, nil, cfg, quietLogger())

	start := time.Now()
	assert.Empty(t, ext.Discover(context.Background(), "park", dallas, 8))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExternalPlaces_DiscoverHasNoFallback(t *testing.T) {
	area := &mockArea{}
	text := &mockText{}
	got := newExternal(area, text, nil).Discover(context.Background(), "", dallas, 8)

	assert.Empty(t, got)
	assert.Empty(t, text.queries)
	require.Len(t, area.queries, 1)
	assert.False(t, area.queries[0].CountryFilter)
	assert.Equal(t, usecases.DiscoverLimit, area.queries[0].Limit)
}

func TestExternalPlaces_DiscoverCap(t *testing.T) {
	area := &mockArea{
		areaFn: func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) {
			return manyPlaces(80, 32.7, -96.8), nil
		},
	}
	got := newExternal(area, nil, nil).Discover(context.Background(), "", dallas, 8)
	assert.Len(t, got, usecases.DiscoverLimit)
}

func TestExternalPlaces_FreeTextFiltersRegion(t *testing.T) {
	text := &mockText{
		textFn: func(ctx context.Context, q ports.TextQuery) ([]domain.Place, error) {
			return []domain.Place{
				place("osm_1", "Paris Cafe", 48.85, 2.35),
				place("osm_2", "Paris Cafe", 33.66, -95.55),
			}, nil
		},
	}
	got := newExternal(nil, text, nil).SearchFreeText(context.Background(), "paris cafe", "", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "osm_2", got[0].ID)
}

func TestExternalPlaces_CachesResults(t *testing.T) {
	calls := 0
	area := &mockArea{
		areaFn: func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) {
			calls++
			return []domain.Place{place("osm_1", "Cafe", 32.78, -96.79)}, nil
		},
	}
	cache := newMockCache()
	ext := newExternal(area, nil, cache)

	first := ext.Discover(context.Background(), "cafe", dallas, 8)
	second := ext.Discover(context.Background(), "cafe", dallas, 8)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	require.Len(t, cache.ttls, 1)
	for _, ttl := range cache.ttls {
		assert.Equal(t, 600, ttl)
	}
}

func TestExternalPlaces_EvictsUndecodableEntry(t *testing.T) {
	calls := 0
	area := &mockArea{
		areaFn: func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) {
			calls++
			return []domain.Place{place("osm_node_1", "Cafe", 32.78, -96.79)}, nil
		},
	}
	cache := newMockCache()
	ext := newExternal(area, nil, cache)

	// learn the key from a first call, then corrupt it
	ext.Discover(context.Background(), "cafe", dallas, 8)
	require.Len(t, cache.data, 1)
	var key string
	for k := range cache.data {
		key = k
	}
	cache.data[key] = []byte("{not json")

	got := ext.Discover(context.Background(), "cafe", dallas, 8)
	require.Len(t, got, 1)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{key}, cache.deleted)

	var ps []domain.Place
	require.NoError(t, json.Unmarshal(cache.data[key], &ps), "entry is rewritten after eviction")
}

func TestExternalPlaces_EmptyResultsCachedBriefly(t *testing.T) {
	cache := newMockCache()
	newExternal(&mockArea{}, nil, cache).Discover(context.Background(), "", dallas, 8)

	require.Len(t, cache.data, 1)
	for k, v := range cache.data {
		var ps []domain.Place
		require.NoError(t, json.Unmarshal(v, &ps))
		assert.Empty(t, ps)
		assert.Equal(t, 120, cache.ttls[k])
	}
}

func TestExternalPlaces_ErrorsNotCached(t *testing.T) {
	cache := newMockCache()
	area := &mockArea{
		areaFn: func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) { return nil, errBoom },
	}
	newExternal(area, nil, cache).Discover(context.Background(), "", dallas, 8)
	assert.Empty(t, cache.data)
}
