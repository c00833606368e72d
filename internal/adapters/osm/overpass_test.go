package osm_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/spotfinder/internal/adapters/osm"
	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
)

var austinBox = domain.Bounds{South: 30.2, West: -97.8, North: 30.3, East: -97.7}

const overpassBody = `{"elements":[
 {"type":"node","id":101,"lat":30.2672,"lon":-97.7431,"tags":{
   "name":"Bennu Coffee","amenity":"cafe","addr:housenumber":"2001","addr:street":"E MLK Jr Blvd",
   "addr:city":"Austin","addr:state":"TX","addr:postcode":"78702","wifi":"yes","opening_hours":"24/7",
   "website":"https://bennucoffee.com"}},
 {"type":"way","id":202,"center":{"lat":30.27,"lon":-97.75},"tags":{"name":"Central Library","amenity":"library"}},
 {"type":"node","id":303,"lat":30.25,"lon":-97.74,"tags":{"amenity":"cafe"}},
 {"type":"way","id":404,"tags":{"name":"No Geometry","amenity":"cafe"}}
]}`

func TestOverpassClient_SearchArea(t *testing.T) {
	ctx := context.Background()

	t.Run("maps named elements and drops malformed ones", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodPost, req.Method)
				assert.Equal(t, "spotfinder-test", req.Header.Get("User-Agent"))
				assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))

				raw, err := io.ReadAll(req.Body)
				require.NoError(t, err)
				form, err := url.ParseQuery(string(raw))
				require.NoError(t, err)
				data := form.Get("data")
				assert.Contains(t, data, `node["amenity"="cafe"]["addr:country"!~"."](30.200000,-97.800000,30.300000,-97.700000);`)
				assert.Contains(t, data, `["addr:country"="US"]`)
				assert.True(t, strings.HasSuffix(data, "out center meta;"))

				return respond(http.StatusOK, overpassBody), nil
			},
		}

		c := osm.NewOverpassClientWithClient(client, "http://overpass.test/api", "spotfinder-test", quietLogger())
		places, err := c.SearchArea(ctx, ports.POIQuery{Bounds: austinBox, Category: "cafe", CountryFilter: true})
		require.NoError(t, err)
		require.Len(t, places, 2)

		cafe := places[0]
		assert.Equal(t, "osm_node_101", cafe.ID)
		assert.Equal(t, domain.SourceExternal, cafe.Source)
		assert.Equal(t, "Bennu Coffee", cafe.Name)
		assert.Equal(t, "2001 E MLK Jr Blvd, Austin, TX 78702", cafe.Address)
		assert.Equal(t, "24/7", cafe.Description)
		assert.Equal(t, "cafe", cafe.Category)
		assert.Equal(t, []string{"wifi"}, cafe.Amenities)
		assert.Equal(t, "https://bennucoffee.com", cafe.Website)
		assert.InDelta(t, 30.2672, cafe.Location.Lat, 1e-9)

		lib := places[1]
		assert.Equal(t, "osm_way_202", lib.ID)
		assert.Equal(t, "Unknown", lib.City)
		assert.Equal(t, "Address not available", lib.Address)
		assert.Equal(t, "A library in Unknown", lib.Description)
		assert.Equal(t, []string{"public_access"}, lib.Amenities)
		assert.InDelta(t, -97.75, lib.Location.Lon, 1e-9)
		assert.Equal(t, "cafe", lib.Category)
	})

	t.Run("category derived from tags when none requested", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return respond(http.StatusOK, overpassBody), nil
			},
		}
		c := osm.NewOverpassClientWithClient(client, "", "", quietLogger())
		places, err := c.SearchArea(ctx, ports.POIQuery{Bounds: austinBox})
		require.NoError(t, err)
		require.Len(t, places, 2)
		assert.Equal(t, "cafe", places[0].Category)
		assert.Equal(t, "library", places[1].Category)
	})

	t.Run("non-200 status", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return respond(http.StatusGatewayTimeout, "busy"), nil
			},
		}
		c := osm.NewOverpassClientWithClient(client, "", "", quietLogger())
		_, err := c.SearchArea(ctx, ports.POIQuery{Bounds: austinBox})
		require.Error(t, err)
		assert.ErrorIs(t, err, osm.ErrUnexpectedStatus)
	})

	t.Run("transport failure", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
		}
		c := osm.NewOverpassClientWithClient(client, "", "", quietLogger())
		_, err := c.SearchArea(ctx, ports.POIQuery{Bounds: austinBox})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("invalid json", func(t *testing.T) {
		client := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return respond(http.StatusOK, "<html>"), nil
			},
		}
		c := osm.NewOverpassClientWithClient(client, "", "", quietLogger())
		_, err := c.SearchArea(ctx, ports.POIQuery{Bounds: austinBox})
		assert.ErrorIs(t, err, osm.ErrDecode)
	})
}

func TestBuildAreaQuery(t *testing.T) {
	t.Run("default tag set for unmapped category", func(t *testing.T) {
		q := osm.BuildAreaQuery(ports.POIQuery{Bounds: austinBox, Category: "bowling"}, "US")
		assert.True(t, strings.HasPrefix(q, "[out:json][timeout:15];("))
		assert.Contains(t, q, `node["amenity"~"^(cafe|restaurant|library|coffee_shop|coworking_space)$"]`)
		assert.Contains(t, q, `way["leisure"~"^(park|recreation_ground)$"]`)
		assert.NotContains(t, q, "addr:country")
	})

	t.Run("mapped category without country filter", func(t *testing.T) {
		q := osm.BuildAreaQuery(ports.POIQuery{Bounds: austinBox, Category: "Park"}, "US")
		assert.Contains(t, q, `node["leisure"="park"](30.200000,-97.800000,30.300000,-97.700000);`)
		assert.Contains(t, q, `way["leisure"="recreation_ground"]`)
		assert.NotContains(t, q, "addr:country")
	})

	t.Run("country filter doubles each predicate", func(t *testing.T) {
		q := osm.BuildAreaQuery(ports.POIQuery{Bounds: austinBox, Category: "library", CountryFilter: true}, "US")
		assert.Equal(t, 2, strings.Count(q, `["addr:country"!~"."]`))
		assert.Equal(t, 2, strings.Count(q, `["addr:country"="US"]`))
	})
}

func TestBuildAreaQuery_CategoryMapping(t *testing.T) {
	q := osm.BuildAreaQuery(ports.POIQuery{Bounds: austinBox, Category: "CAFE"}, "US")
	assert.Contains(t, q, `["amenity"="cafe"]`)
	assert.Contains(t, q, `["amenity"="coffee_shop"]`)
	assert.NotContains(t, q, `"amenity"~`)

	q = osm.BuildAreaQuery(ports.POIQuery{Bounds: austinBox, Category: "museum"}, "US")
	assert.Contains(t, q, `["amenity"~"^(cafe|restaurant|library|coffee_shop|coworking_space)$"]`)
	assert.Contains(t, q, `["leisure"~"^(park|recreation_ground)$"]`)
}

func TestOverpassClient_IDsIncludeElementType(t *testing.T) {
	body := `{"elements":[
 {"type":"node","id":7,"lat":30.25,"lon":-97.74,"tags":{"name":"Corner Cafe","amenity":"cafe"}},
 {"type":"way","id":7,"center":{"lat":30.26,"lon":-97.75},"tags":{"name":"Pease Park","leisure":"park"}}
]}`
	client := &mockHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return respond(http.StatusOK, body), nil
	}}
	c := osm.NewOverpassClientWithClient(client, "http://overpass.test/api", "", quietLogger())

	places, err := c.SearchArea(context.Background(), ports.POIQuery{Bounds: austinBox})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "osm_node_7", places[0].ID)
	assert.Equal(t, "osm_way_7", places[1].ID)
	assert.True(t, domain.IsExternalID(places[1].ID))
}
