// Package ipgeo resolves client IP addresses to coarse positions through
// public lookup services.
package ipgeo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	DefaultIPAPIURL    = "https://ipapi.co"
	DefaultIPAPIComURL = "http://ip-api.com"
	userAgent          = "spotfinder/1.0"
)

var (
	ErrUnexpectedStatus = errors.New("ipgeo: unexpected status")
	ErrLookupFailed     = errors.New("ipgeo: lookup failed")
)

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func getJSON(ctx context.Context, client HTTPClient, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IPAPIClient looks addresses up with ipapi.co.
type IPAPIClient struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

func NewIPAPIClient(timeout time.Duration, log *slog.Logger) *IPAPIClient {
	return NewIPAPIClientWithClient(newHTTPClient(timeout), DefaultIPAPIURL, log)
}

func NewIPAPIClientWithClient(client HTTPClient, baseURL string, log *slog.Logger) *IPAPIClient {
	return &IPAPIClient{client: client, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

type ipapiResponse struct {
	IP          string   `json:"ip"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryCode string   `json:"country_code"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

func (c *IPAPIClient) Locate(ctx context.Context, ip string) (*domain.IPLocation, error) {
	var r ipapiResponse
	if err := getJSON(ctx, c.client, c.baseURL+"/"+url.PathEscape(ip)+"/json/", &r); err != nil {
		return nil, fmt.Errorf("ipapi.co: %w", err)
	}
	if r.Error {
		return nil, fmt.Errorf("%w: ipapi.co: %s", ErrLookupFailed, r.Reason)
	}
	if r.Latitude == nil || r.Longitude == nil {
		return nil, fmt.Errorf("%w: ipapi.co: no coordinates", ErrLookupFailed)
	}

	c.log.DebugContext(ctx, "ip located", "provider", "ipapi.co", "city", r.City)
	return &domain.IPLocation{
		IP:       ip,
		City:     r.City,
		Region:   r.Region,
		Country:  r.CountryCode,
		Location: domain.GeoPoint{Lat: *r.Latitude, Lon: *r.Longitude},
	}, nil
}

// IPAPIComClient looks addresses up with ip-api.com.
type IPAPIComClient struct {
	client  HTTPClient
	baseURL string
	log     *slog.Logger
}

func NewIPAPIComClient(timeout time.Duration, log *slog.Logger) *IPAPIComClient {
	return NewIPAPIComClientWithClient(newHTTPClient(timeout), DefaultIPAPIComURL, log)
}

func NewIPAPIComClientWithClient(client HTTPClient, baseURL string, log *slog.Logger) *IPAPIComClient {
	return &IPAPIComClient{client: client, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

type ipapiComResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	CountryCode string  `json:"countryCode"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

const ipapiComFields = "status,message,country,countryCode,region,regionName,city,lat,lon"

func (c *IPAPIComClient) Locate(ctx context.Context, ip string) (*domain.IPLocation, error) {
	u := c.baseURL + "/json/" + url.PathEscape(ip) + "?fields=" + ipapiComFields

	var r ipapiComResponse
	if err := getJSON(ctx, c.client, u, &r); err != nil {
		return nil, fmt.Errorf("ip-api.com: %w", err)
	}
	if r.Status != "success" {
		return nil, fmt.Errorf("%w: ip-api.com: %s", ErrLookupFailed, r.Message)
	}

	c.log.DebugContext(ctx, "ip located", "provider", "ip-api.com", "city", r.City)
	return &domain.IPLocation{
		IP:       ip,
		City:     r.City,
		Region:   r.RegionName,
		Country:  r.CountryCode,
		Location: domain.GeoPoint{Lat: r.Lat, Lon: r.Lon},
	}, nil
}
