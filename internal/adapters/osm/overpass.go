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

	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/pkg/telemetry"
)

// OverpassClient implements ports.POIProvider with the Overpass API.
type OverpassClient struct {
	client    HTTPClient
	endpoint  string
	userAgent string
	country   string
	log       *slog.Logger
}

// NewOverpassClient creates an Overpass client with its own HTTP client.
func NewOverpassClient(endpoint, userAgent string, timeout time.Duration, log *slog.Logger) *OverpassClient {
	return NewOverpassClientWithClient(newHTTPClient(timeout), endpoint, userAgent, log)
}

// NewOverpassClientWithClient creates an Overpass client with a custom HTTP client.
func NewOverpassClientWithClient(client HTTPClient, endpoint, userAgent string, log *slog.Logger) *OverpassClient {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &OverpassClient{client: client, endpoint: endpoint, userAgent: userAgent, country: "US", log: log}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// location resolves the element coordinate. Ways and relations only carry
// a center when the query asks for "out center".
func (e overpassElement) location() (domain.GeoPoint, bool) {
	if e.Lat != nil && e.Lon != nil {
		return domain.GeoPoint{Lat: *e.Lat, Lon: *e.Lon}, true
	}
	if e.Center != nil {
		return domain.GeoPoint{Lat: e.Center.Lat, Lon: e.Center.Lon}, true
	}
	return domain.GeoPoint{}, false
}

// SearchArea runs a tag query over q.Bounds. Unnamed or unlocated elements
// are dropped.
func (c *OverpassClient) SearchArea(ctx context.Context, q ports.POIQuery) ([]domain.Place, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanOverpass)
	defer span.End()

	query := BuildAreaQuery(q, c.country)
	c.log.DebugContext(ctx, "overpass query", "query", query)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	var resp overpassResponse
	if err := doJSON(ctx, c.client, req, &resp); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("overpass: %w", err)
	}

	places := make([]domain.Place, 0, len(resp.Elements))
	dropped := 0
	for _, el := range resp.Elements {
		p, err := el.toPlace(q.Category)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedExternalRecord) {
				dropped++
				continue
			}
			return nil, err
		}
		places = append(places, p)
	}
	if dropped > 0 {
		c.log.DebugContext(ctx, "overpass elements dropped", "count", dropped)
	}
	return places, nil
}

func (e overpassElement) toPlace(category string) (domain.Place, error) {
	loc, ok := e.location()
	// node, way and relation ids are separate sequences
	id := e.Type + "_" + strconv.FormatInt(e.ID, 10)
	if !ok {
		return domain.Place{}, fmt.Errorf("%w: element %s has no coordinate", domain.ErrMalformedExternalRecord, id)
	}
	return elementFromTags(id, loc, e.Tags).toPlace(category)
}

// BuildAreaQuery renders q as Overpass QL. With CountryFilter set, each
// tag predicate is emitted twice: once for features without a country tag
// and once for features tagged with country.
func BuildAreaQuery(q ports.POIQuery, country string) string {
	bbox := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", q.Bounds.South, q.Bounds.West, q.Bounds.North, q.Bounds.East)

	var b strings.Builder
	b.WriteString("[out:json][timeout:15];(")

	tags := categoryTags[strings.ToLower(q.Category)]
	if len(tags) == 0 {
		for _, kind := range []string{"node", "way"} {
			fmt.Fprintf(&b, `%s["amenity"~"%s"](%s);`, kind, defaultAmenityPattern, bbox)
		}
		for _, kind := range []string{"node", "way"} {
			fmt.Fprintf(&b, `%s["leisure"~"%s"](%s);`, kind, defaultLeisurePattern, bbox)
		}
	}
	for _, t := range tags {
		for _, kind := range []string{"node", "way"} {
			if !q.CountryFilter {
				fmt.Fprintf(&b, `%s["%s"="%s"](%s);`, kind, t.Key, t.Value, bbox)
				continue
			}
			fmt.Fprintf(&b, `%s["%s"="%s"]["addr:country"!~"."](%s);`, kind, t.Key, t.Value, bbox)
			fmt.Fprintf(&b, `%s["%s"="%s"]["addr:country"="%s"](%s);`, kind, t.Key, t.Value, country, bbox)
		}
	}

	b.WriteString(");out center meta;")
	return b.String()
}
