package usecases_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
)

var errBoom = errors.New("boom")

func quietLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// --- Mock PlaceRepository ---

type mockPlaceRepo struct {
	mu       sync.Mutex
	filters  []ports.CatalogFilter
	searchFn func(ctx context.Context, f ports.CatalogFilter) ([]domain.Place, error)
	getFn    func(ctx context.Context, id string) (*domain.Place, error)
}

func (m *mockPlaceRepo) Search(ctx context.Context, f ports.CatalogFilter) ([]domain.Place, error) {
	m.mu.Lock()
	m.filters = append(m.filters, f)
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, f)
	}
	return nil, nil
}

func (m *mockPlaceRepo) GetByID(ctx context.Context, id string) (*domain.Place, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	queries   []string
	geocodeFn func(ctx context.Context, q string) (*domain.GeocodeResult, error)
}

func (m *mockGeocoder) Geocode(ctx context.Context, q string) (*domain.GeocodeResult, error) {
	m.queries = append(m.queries, q)
	if m.geocodeFn != nil {
		return m.geocodeFn(ctx, q)
	}
	return nil, nil
}

// --- Mock POI providers ---

type mockArea struct {
	queries []ports.POIQuery
	areaFn  func(ctx context.Context, q ports.POIQuery) ([]domain.Place, error)
}

func (m *mockArea) SearchArea(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) {
	m.queries = append(m.queries, q)
	if m.areaFn != nil {
		return m.areaFn(ctx, q)
	}
	return nil, nil
}

type mockText struct {
	queries []ports.TextQuery
	textFn  func(ctx context.Context, q ports.TextQuery) ([]domain.Place, error)
}

func (m *mockText) SearchText(ctx context.Context, q ports.TextQuery) ([]domain.Place, error) {
	m.queries = append(m.queries, q)
	if m.textFn != nil {
		return m.textFn(ctx, q)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	data    map[string][]byte
	ttls    map[string]int
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, ttl int) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []*domain.SearchEvent
	err    error
	// block makes the publish wait until its context ends, like a
	// JetStream publish waiting on an ack from a dead broker.
	block bool
}

func (m *mockPublisher) PublishSearchCompleted(ctx context.Context, ev *domain.SearchEvent) error {
	m.events = append(m.events, ev)
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

// --- Mock IPLocator ---

type mockLocator struct {
	calls    int
	locateFn func(ctx context.Context, ip string) (*domain.IPLocation, error)
}

func (m *mockLocator) Locate(ctx context.Context, ip string) (*domain.IPLocation, error) {
	m.calls++
	if m.locateFn != nil {
		return m.locateFn(ctx, ip)
	}
	return nil, nil
}

func place(id, name string, lat, lon float64) domain.Place {
	return domain.Place{ID: id, Name: name, Location: domain.GeoPoint{Lat: lat, Lon: lon}}
}

func ptr[T any](v T) *T { return &v }
