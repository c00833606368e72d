package http

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

const maxSearchLength = 200

// SearchPlacesHandler runs the hybrid catalog + OpenStreetMap search.
func SearchPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseSearchQuery(c)
		if err != nil {
			return errFrom(c, err, "places")
		}

		places, err := deps.Search.Search(c.UserContext(), q)
		if err != nil {
			return errFrom(c, err, "places")
		}
		if places == nil {
			places = []domain.Place{}
		}
		c.Set("X-Result-Count", strconv.Itoa(len(places)))
		return c.JSON(places)
	}
}

// NearbyPlacesHandler returns catalog places around a point, closest first.
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := parseCenter(c)
		if err != nil {
			return errFrom(c, err, "places")
		}
		if center == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		radius, err := parseRadius(c)
		if err != nil {
			return errFrom(c, err, "places")
		}

		places, err := deps.Search.Nearby(c.UserContext(), *center, radius)
		if err != nil {
			return errFrom(c, err, "places")
		}

		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 50)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		total := len(places)
		page := []domain.Place{}
		if offset < total {
			page = places[offset:min(offset+limit, total)]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// GetPlaceHandler returns a single place by ID.
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "place id is required")
		}
		place, err := deps.Search.GetByID(c.UserContext(), id)
		if err != nil {
			return errFrom(c, err, "place")
		}
		if place.IsExternal() {
			c.Set("Cache-Control", "public, max-age=86400")
		}
		return c.JSON(place)
	}
}

// IPLocationHandler estimates the caller's position from the client IP.
func IPLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc := deps.Locate.Locate(c.UserContext(), clientIP(c))
		c.Set("Cache-Control", "private, max-age=3600")
		return c.JSON(loc)
	}
}

// clientIP prefers the first X-Forwarded-For hop over the socket peer.
func clientIP(c *fiber.Ctx) string {
	if ips := c.IPs(); len(ips) > 0 && ips[0] != "" {
		return ips[0]
	}
	return c.IP()
}

func parseSearchQuery(c *fiber.Ctx) (domain.SearchQuery, error) {
	text := c.Query("search")
	if text == "" {
		text = c.Query("q")
	}
	if len(text) > maxSearchLength {
		return domain.SearchQuery{}, fmt.Errorf("%w: search too long (max %d characters)", domain.ErrInvalidQuery, maxSearchLength)
	}

	center, err := parseCenter(c)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	radius, err := parseRadius(c)
	if err != nil {
		return domain.SearchQuery{}, err
	}

	var amenities []string
	if raw := c.Query("amenities"); raw != "" {
		amenities = strings.Split(raw, ",")
	}

	q := domain.SearchQuery{
		Text:        text,
		Category:    c.Query("category"),
		Amenities:   amenities,
		Center:      center,
		RadiusMiles: radius,
		Discover:    parseFlag(c.Query("discover")),
	}
	return q.Normalize(), nil
}

// parseCenter reads lat and lng (or lon). Both absent means no center.
func parseCenter(c *fiber.Ctx) (*domain.GeoPoint, error) {
	rawLat := c.Query("lat")
	rawLon := c.Query("lng", c.Query("lon"))
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	if rawLat == "" || rawLon == "" {
		return nil, fmt.Errorf("%w: lat and lng must be given together", domain.ErrInvalidQuery)
	}

	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid lat %q", domain.ErrInvalidQuery, rawLat)
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid lng %q", domain.ErrInvalidQuery, rawLon)
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return nil, fmt.Errorf("%w: lat must be within [-90, 90] and lng within [-180, 180]", domain.ErrInvalidQuery)
	}
	return &p, nil
}

// parseRadius returns the radius in miles, or 0 when absent. Range clamping
// happens in SearchQuery.Normalize.
func parseRadius(c *fiber.Ctx) (float64, error) {
	raw := c.Query("radius")
	if raw == "" {
		return 0, nil
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, fmt.Errorf("%w: invalid radius %q", domain.ErrInvalidQuery, raw)
	}
	return r, nil
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
