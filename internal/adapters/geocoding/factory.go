// Package geocoding selects the backend that resolves free text to a point.
package geocoding

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"

	"github.com/samirrijal/spotfinder/internal/core/ports"
)

// ProviderType names a geocoding backend.
type ProviderType string

const (
	ProviderTypeGoogle    ProviderType = "google"
	ProviderTypeNominatim ProviderType = "nominatim"
)

// ProviderConfig holds configuration for creating a geocoding provider.
type ProviderConfig struct {
	Type      ProviderType
	APIKey    string // Google only
	RateLimit int    // Google only, requests per second
	// Nominatim is the shared OSM client; it doubles as the free-text
	// searcher so it is built by the caller.
	Nominatim ports.Geocoder
	Logger    *slog.Logger
}

var (
	ErrMissingAPIKey    = errors.New("API key is required for google provider")
	ErrMissingNominatim = errors.New("nominatim client is required for nominatim provider")
)

// NewProvider creates the geocoder named by config.Type.
func NewProvider(config ProviderConfig) (ports.Geocoder, error) {
	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim, "":
		if config.Nominatim == nil {
			return nil, ErrMissingNominatim
		}
		return config.Nominatim, nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

func newGoogleProvider(config ProviderConfig) (ports.Geocoder, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientOpts := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create google maps client: %w", err)
	}
	return NewGoogleProvider(client, config.Logger), nil
}
