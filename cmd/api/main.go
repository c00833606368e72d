package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/spotfinder/internal/adapters/geocoding"
	"github.com/samirrijal/spotfinder/internal/adapters/http"
	"github.com/samirrijal/spotfinder/internal/adapters/ipgeo"
	natsadapter "github.com/samirrijal/spotfinder/internal/adapters/nats"
	"github.com/samirrijal/spotfinder/internal/adapters/osm"
	"github.com/samirrijal/spotfinder/internal/adapters/postgres"
	"github.com/samirrijal/spotfinder/internal/adapters/valkey"
	"github.com/samirrijal/spotfinder/internal/core/domain"
	"github.com/samirrijal/spotfinder/internal/core/ports"
	"github.com/samirrijal/spotfinder/internal/core/usecases"
	"github.com/samirrijal/spotfinder/internal/pkg/config"
	"github.com/samirrijal/spotfinder/internal/pkg/geospatial"
	"github.com/samirrijal/spotfinder/internal/pkg/logging"
	"github.com/samirrijal/spotfinder/internal/pkg/metrics"
	"github.com/samirrijal/spotfinder/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("spotfinder-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format, "service", "spotfinder-api")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Operating region
	region := domain.Bounds{
		South: cfg.Region.South,
		West:  cfg.Region.West,
		North: cfg.Region.North,
		East:  cfg.Region.East,
	}
	center := domain.GeoPoint{Lat: cfg.Region.CenterLat, Lon: cfg.Region.CenterLon}
	geospatial.RegionBounds = region
	geospatial.DefaultCenter = center

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN(), 20)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache
	var cache *valkey.Cache
	var poiCache ports.CacheService
	if cfg.Valkey.Enabled {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, external results will not be cached", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			poiCache = cache
		}
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, search events disabled", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// OpenStreetMap
	overpass := osm.NewOverpassClient(cfg.OSM.OverpassURL, cfg.OSM.UserAgent, cfg.OSM.Timeout, logger)
	nominatim := osm.NewNominatimClient(osm.NominatimOptions{
		BaseURL:   cfg.OSM.NominatimURL,
		UserAgent: cfg.OSM.UserAgent,
		Timeout:   cfg.OSM.Timeout,
		RateLimit: cfg.OSM.RateLimit,
	}, logger)

	geocoder, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Geocoder.Provider),
		APIKey:    cfg.Geocoder.APIKey,
		RateLimit: 10,
		Nominatim: nominatim,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("geocoder: %v", err)
	}

	// IP geolocation
	var locators []ports.IPLocator
	if cfg.IPGeo.Enabled {
		locators = append(locators,
			ipgeo.NewIPAPIClient(cfg.IPGeo.Timeout, logger),
			ipgeo.NewIPAPIComClient(cfg.IPGeo.Timeout, logger),
		)
	}

	// Use cases
	catalog := usecases.NewCatalogSearch(postgres.NewPlaceRepo(db.Pool))
	resolver := usecases.NewPlaceResolver(geocoder, usecases.ResolverConfig{
		Threshold:          cfg.Search.GeocodeThreshold,
		Qualifier:          "USA",
		AcceptImportance:   cfg.Search.AcceptImportance,
		RecenterImportance: cfg.Search.RecenterImportance,
		Timeout:            cfg.Search.GeocodeTimeout,
	}, logger)
	external := usecases.NewExternalPlaces(overpass, nominatim, poiCache, usecases.ExternalConfig{
		Region:   region,
		Fallback: center,
		Timeout:  cfg.OSM.Timeout,
		CacheTTL: cfg.OSM.CacheTTL,
	}, logger)
	searchSvc := usecases.NewSearchService(catalog, resolver, external, events, usecases.SearchConfig{
		RecenterRadiusKm: cfg.Search.RecenterRadiusKm,
		PublishTimeout:   cfg.Search.PublishTimeout,
	}, logger)
	locateSvc := usecases.NewLocateService(region, cfg.IPGeo.Timeout, logger, locators...)

	deps := &http.Dependencies{
		Search:  searchSvc,
		Locate:  locateSvc,
		NATS:    natsConn,
		DB:      db,
		Cache:   cache,
		Version: version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Spotfinder API",
	})
	app.Use(recover.New())

	http.SetupRoutes(app, deps, http.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		RateLimit:    120,
	})

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "geocoder", cfg.Geocoder.Provider)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
