package ipgeo_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/spotfinder/internal/adapters/ipgeo"
)

type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body))}
}

var logger = slog.New(slog.DiscardHandler)

func TestIPAPIClient_Locate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "http://ipapi.test/8.8.8.8/json/", req.URL.String())
			assert.NotEmpty(t, req.Header.Get("User-Agent"))
			return respond(http.StatusOK, `{"ip":"8.8.8.8","city":"Mountain View","region":"California",
				"country_code":"US","latitude":37.42301,"longitude":-122.083352}`), nil
		}}

		loc, err := ipgeo.NewIPAPIClientWithClient(client, "http://ipapi.test/", logger).Locate(ctx, "8.8.8.8")
		require.NoError(t, err)
		assert.Equal(t, "Mountain View", loc.City)
		assert.Equal(t, "California", loc.Region)
		assert.Equal(t, "US", loc.Country)
		assert.InDelta(t, 37.42301, loc.Location.Lat, 1e-9)
		assert.False(t, loc.Fallback)
	})

	t.Run("service error payload", func(t *testing.T) {
		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, `{"ip":"8.8.8.8","error":true,"reason":"RateLimited"}`), nil
		}}
		_, err := ipgeo.NewIPAPIClientWithClient(client, "http://ipapi.test", logger).Locate(ctx, "8.8.8.8")
		require.ErrorIs(t, err, ipgeo.ErrLookupFailed)
		assert.Contains(t, err.Error(), "RateLimited")
	})

	t.Run("missing coordinates", func(t *testing.T) {
		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, `{"ip":"8.8.8.8","city":"Nowhere"}`), nil
		}}
		_, err := ipgeo.NewIPAPIClientWithClient(client, "http://ipapi.test", logger).Locate(ctx, "8.8.8.8")
		assert.ErrorIs(t, err, ipgeo.ErrLookupFailed)
	})

	t.Run("http status", func(t *testing.T) {
		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return respond(http.StatusTooManyRequests, ``), nil
		}}
		_, err := ipgeo.NewIPAPIClientWithClient(client, "http://ipapi.test", logger).Locate(ctx, "8.8.8.8")
		assert.ErrorIs(t, err, ipgeo.ErrUnexpectedStatus)
	})
}

func TestIPAPIComClient_Locate(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		client := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "/json/1.1.1.1", req.URL.Path)
			assert.Contains(t, req.URL.Query().Get("fields"), "countryCode")
			return respond(http.StatusOK, `{"status":"success","countryCode":"US","regionName":"Texas",
				"city":"Austin","lat":30.2672,"lon":-97.7431}`), nil
		}}

		loc, err := ipgeo.NewIPAPIComClientWithClient(client, "http://ipapicom.test", logger).Locate(ctx, "1.1.1.1")
		require.NoError(t, err)
		assert.Equal(t, "Austin", loc.City)
		assert.Equal(t, "Texas", loc.Region)
		assert.InDelta(t, -97.7431, loc.Location.Lon, 1e-9)
	})

	t.Run("fail status", func(t *testing.T) {
		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, `{"status":"fail","message":"reserved range"}`), nil
		}}
		_, err := ipgeo.NewIPAPIComClientWithClient(client, "http://ipapicom.test", logger).Locate(ctx, "1.1.1.1")
		require.ErrorIs(t, err, ipgeo.ErrLookupFailed)
		assert.Contains(t, err.Error(), "reserved range")
	})

	t.Run("transport error", func(t *testing.T) {
		client := &mockHTTPClient{doFunc: func(_ *http.Request) (*http.Response, error) {
			return nil, errors.New("dial tcp: timeout")
		}}
		_, err := ipgeo.NewIPAPIComClientWithClient(client, "http://ipapicom.test", logger).Locate(ctx, "1.1.1.1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dial tcp")
	})
}
