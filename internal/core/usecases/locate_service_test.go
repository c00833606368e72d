package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/usecases"
	"github.com/samirrijal/spotfinder/internal/pkg/geospatial"
)

func TestLocateService_Locate(t *testing.T) {
	ctx := context.Background()
	austin := &domain.IPLocation{IP: "8.8.8.8", City: "Austin", Country: "US", Location: domain.GeoPoint{Lat: 30.27, Lon: -97.74}}

	t.Run("private and loopback addresses skip lookup", func(t *testing.T) {
		loc := &mockLocator{}
		svc := usecases.NewLocateService(geospatial.RegionBounds, time.Second, quietLogger(), loc)

		for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "::1", "not-an-ip", ""} {
			assert.Equal(t, usecases.DefaultIPLocation, svc.Locate(ctx, ip), ip)
		}
		assert.Zero(t, loc.calls)
	})

	t.Run("first locator answers", func(t *testing.T) {
		first := &mockLocator{locateFn: func(_ context.Context, ip string) (*domain.IPLocation, error) {
			assert.Equal(t, "8.8.8.8", ip)
			return austin, nil
		}}
		second := &mockLocator{}
		svc := usecases.NewLocateService(geospatial.RegionBounds, time.Second, quietLogger(), first, second)

		got := svc.Locate(ctx, "8.8.8.8")
		assert.Equal(t, "Austin", got.City)
		assert.False(t, got.Fallback)
		assert.Zero(t, second.calls)
	})

	t.Run("falls through failing locator", func(t *testing.T) {
		first := &mockLocator{locateFn: func(context.Context, string) (*domain.IPLocation, error) {
			return nil, errBoom
		}}
		second := &mockLocator{locateFn: func(context.Context, string) (*domain.IPLocation, error) {
			return austin, nil
		}}
		svc := usecases.NewLocateService(geospatial.RegionBounds, time.Second, quietLogger(), first, second)

		assert.Equal(t, "Austin", svc.Locate(ctx, "8.8.8.8").City)
		assert.Equal(t, 1, first.calls)
	})

	t.Run("foreign result falls back to default", func(t *testing.T) {
		london := &mockLocator{locateFn: func(context.Context, string) (*domain.IPLocation, error) {
			return &domain.IPLocation{City: "London", Country: "GB", Location: domain.GeoPoint{Lat: 51.5, Lon: -0.12}}, nil
		}}
		svc := usecases.NewLocateService(geospatial.RegionBounds, time.Second, quietLogger(), london)

		got := svc.Locate(ctx, "81.2.69.142")
		assert.Equal(t, usecases.DefaultIPLocation, got)
		assert.True(t, got.Fallback)
	})

	t.Run("no locators", func(t *testing.T) {
		svc := usecases.NewLocateService(geospatial.RegionBounds, 0, quietLogger())
		assert.Equal(t, usecases.DefaultIPLocation, svc.Locate(ctx, "8.8.8.8"))
	})
}
