package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/usecases"
)

func newResolver(g *mockGeocoder) *usecases.PlaceResolver {
	return usecases.NewPlaceResolver(g, usecases.DefaultResolverConfig(), quietLogger())
}

func TestPlaceResolver_ShortTextSkipsGeocoder(t *testing.T) {
	g := &mockGeocoder{}
	r := newResolver(g)

	assert.Nil(t, r.Resolve(context.Background(), "cafe"))
	assert.Empty(t, g.queries)
}

func TestPlaceResolver_AppendsQualifier(t *testing.T) {
	g := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q string) (*domain.GeocodeResult, error) {
			return &domain.GeocodeResult{Class: domain.PlaceClassCity, Importance: 0.8}, nil
		},
	}
	res := newResolver(g).Resolve(context.Background(), "Austin")
	require.NotNil(t, res)
	assert.Equal(t, []string{"Austin USA"}, g.queries)
}

func TestPlaceResolver_LowImportanceRejected(t *testing.T) {
	g := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q string) (*domain.GeocodeResult, error) {
			return &domain.GeocodeResult{Class: domain.PlaceClassCity, Importance: 0.4}, nil
		},
	}
	assert.Nil(t, newResolver(g).Resolve(context.Background(), "Smallville"))
}

func TestPlaceResolver_ErrorSwallowed(t *testing.T) {
	g := &mockGeocoder{
		geocodeFn: func(ctx context.Context, q string) (*domain.GeocodeResult, error) {
			return nil, errBoom
		},
	}
	assert.Nil(t, newResolver(g).Resolve(context.Background(), "Austin"))
}

func TestPlaceResolver_ShouldRecenter(t *testing.T) {
	r := newResolver(&mockGeocoder{})
	tests := []struct {
		name string
		res  *domain.GeocodeResult
		want bool
	}{
		{"nil", nil, false},
		{"city", &domain.GeocodeResult{Class: domain.PlaceClassCity, Importance: 0.5}, true},
		{"county", &domain.GeocodeResult{Class: domain.PlaceClassCounty, Importance: 0.45}, true},
		{"famous poi", &domain.GeocodeResult{Class: domain.PlaceClassOther, Importance: 0.75}, true},
		{"obscure poi", &domain.GeocodeResult{Class: domain.PlaceClassOther, Importance: 0.6}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ShouldRecenter(tt.res))
		})
	}
}
