package osm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/telemetry"
)

// ErrInvalidCoords is returned when Nominatim sends unparsable coordinates.
var ErrInvalidCoords = errors.New("nominatim returned invalid coordinates")

// NominatimClient implements ports.Geocoder and ports.TextPlaceSearcher with
// the Nominatim search API. Requests share one limiter to honour the public
// instance's one request per second policy.
type NominatimClient struct {
	client      HTTPClient
	baseURL     string
	userAgent   string
	qualifier   string
	countryCode string
	limiter     *rate.Limiter
	log         *slog.Logger
}

// NominatimOptions configures a NominatimClient.
type NominatimOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
}

// NewNominatimClient creates a Nominatim client with its own HTTP client.
func NewNominatimClient(opts NominatimOptions, log *slog.Logger) *NominatimClient {
	return NewNominatimClientWithClient(newHTTPClient(opts.Timeout), opts, log)
}

// NewNominatimClientWithClient creates a Nominatim client with a custom HTTP client.
func NewNominatimClientWithClient(client HTTPClient, opts NominatimOptions, log *slog.Logger) *NominatimClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultNominatimURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return &NominatimClient{
		client:      client,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		userAgent:   opts.UserAgent,
		qualifier:   "USA",
		countryCode: "us",
		limiter:     limiter,
		log:         log,
	}
}

type nominatimPlace struct {
	OSMID       int64             `json:"osm_id"`
	OSMType     string            `json:"osm_type"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Class       string            `json:"class"`
	Type        string            `json:"type"`
	AddressType string            `json:"addresstype"`
	Importance  float64           `json:"importance"`
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	ExtraTags   map[string]string `json:"extratags"`
}

func (p nominatimPlace) location() (domain.GeoPoint, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrInvalidCoords, p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrInvalidCoords, p.Lon)
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// placeClass prefers the feature type and falls back to the address type
// for administrative boundaries.
func (p nominatimPlace) placeClass() domain.PlaceClass {
	if c := domain.ParsePlaceClass(p.Type); c != domain.PlaceClassOther {
		return c
	}
	return domain.ParsePlaceClass(p.AddressType)
}

// Geocode returns the top match for query, or nil when nothing matched.
func (c *NominatimClient) Geocode(ctx context.Context, query string) (*domain.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var results []nominatimPlace
	if err := c.search(ctx, params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	top := results[0]
	loc, err := top.location()
	if err != nil {
		return nil, err
	}
	return &domain.GeocodeResult{
		Location:    loc,
		Class:       top.placeClass(),
		Importance:  top.Importance,
		DisplayName: top.DisplayName,
	}, nil
}

// SearchText runs a free-text place search restricted to the operating
// country. Only node and way results are returned.
func (c *NominatimClient) SearchText(ctx context.Context, q ports.TextQuery) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("q", c.textQuery(q))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("extratags", "1")
	params.Set("namedetails", "1")
	params.Set("countrycodes", c.countryCode)
	limit := q.Limit
	if limit <= 0 {
		limit = 15
	}
	params.Set("limit", strconv.Itoa(limit))

	var results []nominatimPlace
	if err := c.search(ctx, params, &results); err != nil {
		return nil, err
	}

	places := make([]domain.Place, 0, len(results))
	for _, r := range results {
		p, ok := c.toPlace(r, q.Category)
		if ok {
			places = append(places, p)
		}
	}
	return places, nil
}

func (c *NominatimClient) textQuery(q ports.TextQuery) string {
	parts := make([]string, 0, 4)
	if q.Category != "" {
		parts = append(parts, q.Category)
	}
	parts = append(parts, strings.TrimSpace(q.Text), c.qualifier)
	s := strings.Join(parts, " ")
	if q.Near != nil {
		s += fmt.Sprintf(" near %.4f,%.4f", q.Near.Lat, q.Near.Lon)
	}
	return s
}

func (c *NominatimClient) toPlace(r nominatimPlace, category string) (domain.Place, bool) {
	if r.OSMType != "node" && r.OSMType != "way" {
		return domain.Place{}, false
	}
	loc, err := r.location()
	if err != nil {
		return domain.Place{}, false
	}
	if cc := strings.ToLower(r.Address["country_code"]); cc != "" && cc != c.countryCode {
		return domain.Place{}, false
	}

	displayParts := strings.Split(r.DisplayName, ",")
	name := r.Name
	if name == "" {
		name = strings.TrimSpace(displayParts[0])
	}
	if name == "" {
		return domain.Place{}, false
	}

	a := tagSet(r.Address)
	city := a.first("city", "town", "village")
	var addr []string
	for _, v := range []string{a.first("house_number"), a.first("road"), city, a.first("state"), a.first("postcode")} {
		if v != "" {
			addr = append(addr, v)
		}
	}
	address := strings.Join(addr, ", ")
	if address == "" {
		address = strings.Join(displayParts[:min(3, len(displayParts))], ",")
	}
	if city == "" {
		city = "Unknown"
	}
	if category == "" {
		category = osmCategory(r.Type)
	}

	extra := tagSet(r.ExtraTags)
	return domain.Place{
		ID:           domain.ExternalIDPrefix + r.OSMType + "_" + strconv.FormatInt(r.OSMID, 10),
		Source:       domain.SourceExternal,
		Name:         name,
		Description:  "Found via OpenStreetMap",
		Address:      address,
		City:         city,
		State:        a.first("state"),
		Zip:          a.first("postcode"),
		Category:     category,
		Location:     loc,
		Amenities:    amenitiesFrom(extra),
		Images:       imagesFor(r.Type),
		Phone:        extra.first("phone", "contact:phone"),
		Website:      extra.first("website", "contact:website"),
		OpeningHours: extra.first("opening_hours"),
	}, true
}

func (c *NominatimClient) search(ctx context.Context, params url.Values, out any) error {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanNominatim)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("nominatim rate limit: %w", err)
	}

	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create nominatim request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en")

	c.log.DebugContext(ctx, "nominatim request", "url", reqURL)
	if err := doJSON(ctx, c.client, req, out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("nominatim: %w", err)
	}
	return nil
}
