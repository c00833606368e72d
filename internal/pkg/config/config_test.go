package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("spotfinder-test")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "spotfinder-test", cfg.Telemetry.ServiceName)
	assert.Equal(t, "nominatim", cfg.Geocoder.Provider)
	assert.InDelta(t, 25.0, cfg.Search.RecenterRadiusKm, 1e-9)
	assert.Equal(t, 2*time.Second, cfg.Search.PublishTimeout)
	assert.InDelta(t, 24.396308, cfg.Region.South, 1e-9)
	assert.Equal(t, "https://overpass-api.de/api/interpreter", cfg.OSM.OverpassURL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SPOTFINDER_SERVER_PORT", "9090")
	t.Setenv("SPOTFINDER_GEOCODER_PROVIDER", "google")
	t.Setenv("SPOTFINDER_GEOCODER_API_KEY", "key")

	cfg, err := Load("spotfinder-test")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "google", cfg.Geocoder.Provider)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Setenv("SPOTFINDER_SERVER_PORT", "0")
	t.Setenv("SPOTFINDER_GEOCODER_PROVIDER", "google")

	_, err := Load("spotfinder-test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "geocoder.api_key")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "spots", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/spots?sslmode=disable", d.DSN())
}
