package usecases

import (
	"context"
	"log/slog"
	"net/netip"
	"time"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/geospatial"
	"github.com/samirrijal/spotfinder/internal/pkg/metrics"
)

// DefaultIPLocation is returned whenever a client cannot be placed inside
// the operating region.
var DefaultIPLocation = domain.IPLocation{
	City:     "Dallas",
	Region:   "Texas",
	Country:  "US",
	Location: domain.GeoPoint{Lat: 32.7767, Lon: -96.7970},
	Fallback: true,
}

// LocateService turns a client IP into a starting map position.
type LocateService struct {
	locators []ports.IPLocator
	region   domain.Bounds
	timeout  time.Duration
	log      *slog.Logger
}

// NewLocateService creates a new LocateService. Locators are tried in order.
func NewLocateService(region domain.Bounds, timeout time.Duration, log *slog.Logger, locators ...ports.IPLocator) *LocateService {
	return &LocateService{locators: locators, region: region, timeout: timeout, log: log}
}

// Locate returns the first in-region answer from the locators. Private,
// loopback and unparsable addresses skip the lookup and get the default.
func (s *LocateService) Locate(ctx context.Context, ip string) domain.IPLocation {
	addr, err := netip.ParseAddr(ip)
	if err != nil || addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return DefaultIPLocation
	}

	for _, l := range s.locators {
		loc := s.try(ctx, l, addr.String())
		if loc != nil {
			return *loc
		}
	}
	return DefaultIPLocation
}

func (s *LocateService) try(ctx context.Context, l ports.IPLocator, ip string) *domain.IPLocation {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	loc, err := l.Locate(ctx, ip)
	n := 0
	if loc != nil {
		n = 1
	}
	metrics.ObserveExternal("ipgeo", start, n, err)
	if err != nil {
		s.log.DebugContext(ctx, "ip locator failed", "error", err)
		return nil
	}
	if loc == nil {
		return nil
	}
	if loc.Country != "US" && !geospatial.IsInRegion(loc.Location, s.region) {
		return nil
	}
	return loc
}
