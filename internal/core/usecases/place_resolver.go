package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/metrics"
)

// ResolverConfig tunes when a geocode is attempted and trusted.
type ResolverConfig struct {
	// Threshold is the text length a query must exceed to be geocoded.
	Threshold int
	// Qualifier is appended to the text to bias the geocoder to the region.
	Qualifier          string
	AcceptImportance   float64
	RecenterImportance float64
	Timeout            time.Duration
}

// DefaultResolverConfig returns the stock heuristics.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		Threshold:          3,
		Qualifier:          "USA",
		AcceptImportance:   0.4,
		RecenterImportance: 0.7,
		Timeout:            4 * time.Second,
	}
}

var recenterClasses = map[domain.PlaceClass]bool{
	domain.PlaceClassCity:    true,
	domain.PlaceClassState:   true,
	domain.PlaceClassCounty:  true,
	domain.PlaceClassVillage: true,
	domain.PlaceClassTown:    true,
}

// PlaceResolver decides whether a query text names a place.
type PlaceResolver struct {
	geocoder ports.Geocoder
	cfg      ResolverConfig
	log      *slog.Logger
}

// NewPlaceResolver creates a new PlaceResolver.
func NewPlaceResolver(geocoder ports.Geocoder, cfg ResolverConfig, log *slog.Logger) *PlaceResolver {
	return &PlaceResolver{geocoder: geocoder, cfg: cfg, log: log}
}

// Eligible reports whether text is long enough to be worth a geocode.
func (r *PlaceResolver) Eligible(text string) bool {
	return len(text) > r.cfg.Threshold
}

// Resolve geocodes text and returns the top match when it is trusted. It
// returns nil on short text, low importance, no match or any error.
func (r *PlaceResolver) Resolve(ctx context.Context, text string) *domain.GeocodeResult {
	if r.geocoder == nil || !r.Eligible(text) {
		return nil
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	query := text
	if r.cfg.Qualifier != "" {
		query += " " + r.cfg.Qualifier
	}

	start := time.Now()
	res, err := r.geocoder.Geocode(ctx, query)
	n := 0
	if res != nil {
		n = 1
	}
	metrics.ObserveExternal("geocoder", start, n, err)
	if err != nil {
		r.log.WarnContext(ctx, "geocode failed, not re-centering",
			"query", query, "error", err, "kind", domain.ErrEnrichmentUnavailable)
		return nil
	}
	if res == nil || res.Importance <= r.cfg.AcceptImportance {
		return nil
	}
	return res
}

// ShouldRecenter reports whether res is confident enough to move the search.
func (r *PlaceResolver) ShouldRecenter(res *domain.GeocodeResult) bool {
	if res == nil {
		return false
	}
	return recenterClasses[res.Class] || res.Importance > r.cfg.RecenterImportance
}
