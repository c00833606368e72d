package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	OSM       OSMConfig       `mapstructure:"osm"`
	Geocoder  GeocoderConfig  `mapstructure:"geocoder"`
	IPGeo     IPGeoConfig     `mapstructure:"ipgeo"`
	Region    RegionConfig    `mapstructure:"region"`
	Search    SearchConfig    `mapstructure:"search"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr    string `mapstructure:"addr"`
	Enabled bool   `mapstructure:"enabled"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// OSMConfig configures the Overpass and Nominatim clients.
type OSMConfig struct {
	OverpassURL  string        `mapstructure:"overpass_url"`
	NominatimURL string        `mapstructure:"nominatim_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	Timeout      time.Duration `mapstructure:"timeout"`
	// RateLimit is the Nominatim request budget per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	CacheTTL  int     `mapstructure:"cache_ttl"`
}

// GeocoderConfig selects the place-name resolver backend.
type GeocoderConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
}

type IPGeoConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RegionConfig is the operating region and its fallback center.
type RegionConfig struct {
	South     float64 `mapstructure:"south"`
	West      float64 `mapstructure:"west"`
	North     float64 `mapstructure:"north"`
	East      float64 `mapstructure:"east"`
	CenterLat float64 `mapstructure:"center_lat"`
	CenterLon float64 `mapstructure:"center_lon"`
}

type SearchConfig struct {
	RecenterRadiusKm float64       `mapstructure:"recenter_radius_km"`
	PublishTimeout   time.Duration `mapstructure:"publish_timeout"`
	// GeocodeThreshold is the text length a query must exceed before the
	// geocoder is consulted.
	GeocodeThreshold   int           `mapstructure:"geocode_threshold"`
	GeocodeTimeout     time.Duration `mapstructure:"geocode_timeout"`
	AcceptImportance   float64       `mapstructure:"accept_importance"`
	RecenterImportance float64       `mapstructure:"recenter_importance"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("server.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "spotfinder")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "spotfinder")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("osm.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("osm.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("osm.user_agent", "spotfinder/1.0 (third places search)")
	v.SetDefault("osm.timeout", 8*time.Second)
	v.SetDefault("osm.rate_limit", 1.0)
	v.SetDefault("osm.cache_ttl", 600)
	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("ipgeo.enabled", true)
	v.SetDefault("ipgeo.timeout", 3*time.Second)
	v.SetDefault("region.south", 24.396308)
	v.SetDefault("region.west", -125.0)
	v.SetDefault("region.north", 49.384358)
	v.SetDefault("region.east", -66.93457)
	v.SetDefault("region.center_lat", 39.8283)
	v.SetDefault("region.center_lon", -98.5795)
	v.SetDefault("search.recenter_radius_km", 25.0)
	v.SetDefault("search.publish_timeout", 2*time.Second)
	v.SetDefault("search.geocode_threshold", 3)
	v.SetDefault("search.geocode_timeout", 4*time.Second)
	v.SetDefault("search.accept_importance", 0.4)
	v.SetDefault("search.recenter_importance", 0.7)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SPOTFINDER_DATABASE_HOST → database.host
	v.SetEnvPrefix("SPOTFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.OSM.OverpassURL == "" || c.OSM.NominatimURL == "" {
		errs = append(errs, "osm.overpass_url and osm.nominatim_url are required")
	}
	if c.OSM.UserAgent == "" {
		errs = append(errs, "osm.user_agent is required by the Nominatim usage policy")
	}
	if c.OSM.Timeout <= 0 {
		errs = append(errs, "osm.timeout must be positive")
	}
	switch c.Geocoder.Provider {
	case "nominatim":
	case "google":
		if c.Geocoder.APIKey == "" {
			errs = append(errs, "geocoder.api_key is required for the google provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("geocoder.provider must be nominatim or google, got %q", c.Geocoder.Provider))
	}
	if c.Region.South >= c.Region.North || c.Region.West >= c.Region.East {
		errs = append(errs, "region bounds must satisfy south < north and west < east")
	}
	if c.Search.RecenterRadiusKm <= 0 {
		errs = append(errs, "search.recenter_radius_km must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
