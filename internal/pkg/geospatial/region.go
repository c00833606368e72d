package geospatial

import (
	"math"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

// RegionBounds is the operating region: the contiguous United States.
var RegionBounds = domain.Bounds{
	South: 24.396308,
	West:  -125.0,
	North: 49.384358,
	East:  -66.93457,
}

// DefaultCenter is the geographic center of the contiguous United States.
var DefaultCenter = domain.GeoPoint{Lat: 39.8283, Lon: -98.5795}

// IsInRegion reports whether p lies inside box, edges included.
func IsInRegion(p domain.GeoPoint, box domain.Bounds) bool {
	return p.Lat >= box.South && p.Lat <= box.North &&
		p.Lon >= box.West && p.Lon <= box.East
}

// ClampToRegion returns p when it lies inside box and fallback otherwise.
func ClampToRegion(p domain.GeoPoint, box domain.Bounds, fallback domain.GeoPoint) domain.GeoPoint {
	if IsInRegion(p, box) {
		return p
	}
	return fallback
}

// ClampBounds intersects b with region. The result may be empty when the
// two boxes do not overlap.
func ClampBounds(b, region domain.Bounds) domain.Bounds {
	return domain.Bounds{
		South: math.Max(b.South, region.South),
		West:  math.Max(b.West, region.West),
		North: math.Min(b.North, region.North),
		East:  math.Min(b.East, region.East),
	}
}
