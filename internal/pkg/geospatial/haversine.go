package geospatial

import (
	"math"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0
	kmPerDegree   = 111.0
	kmPerMile     = 1.60934

	// maxLatitude keeps cos(lat) away from zero when sizing a box.
	maxLatitude = 90 - 1e-6
)

// HaversineKm calculates the great-circle distance in kilometers between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Distance is HaversineKm for two GeoPoints.
func Distance(a, b domain.GeoPoint) float64 {
	return HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// BoundingBox returns the equirectangular box around center with the given
// radius. It is a prefilter only; the haversine distance is authoritative.
func BoundingBox(center domain.GeoPoint, radiusKm float64) domain.Bounds {
	lat := math.Max(-maxLatitude, math.Min(maxLatitude, center.Lat))
	latDelta := radiusKm / kmPerDegree
	lonDelta := radiusKm / (kmPerDegree * math.Cos(toRad(lat)))

	return domain.Bounds{
		South: center.Lat - latDelta,
		West:  center.Lon - lonDelta,
		North: center.Lat + latDelta,
		East:  center.Lon + lonDelta,
	}
}

// MilesToKm converts statute miles to kilometers.
func MilesToKm(mi float64) float64 { return mi * kmPerMile }

// KmToMiles converts kilometers to statute miles.
func KmToMiles(km float64) float64 { return km / kmPerMile }

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
