package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/spotfinder/internal/pkg/metrics"
)

// Searches may wait on several upstream calls in sequence.
const searchTimeout = 20 * time.Second

// legacyRoutes are the pre-v1 place paths still served for old clients.
var legacyRoutes = []DeprecatedRoute{
	{Path: "/v1/locations", SunsetDate: time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC), Alternative: "/v1/places"},
	{Path: "/v1/locations/nearby", SunsetDate: time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC), Alternative: "/v1/places/nearby"},
	{Path: "/v1/locations/:id", SunsetDate: time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC), Alternative: "/v1/places/:id"},
}

// RouterConfig holds the transport knobs taken from configuration.
type RouterConfig struct {
	AllowOrigins string
	RateLimit    int // requests per minute per IP
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies, cfgs ...RouterConfig) {
	cfg := RouterConfig{AllowOrigins: "*", RateLimit: 120}
	if len(cfgs) > 0 {
		cfg = cfgs[0]
	}

	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins, AllowMethods: "GET,POST,OPTIONS"}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:          cfg.RateLimit,
			Expiration:   time.Minute,
			KeyGenerator: clientIP,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/metrics" || c.Path() == "/v1/health"
			},
			LimitReached: func(c *fiber.Ctx) error {
				return errTooManyRequests(c, "too many requests, please try again later")
			},
		}))
	}

	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(DeprecationMiddleware(legacyRoutes))
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	for _, prefix := range []string{"/places", "/locations"} {
		v1.Get(prefix, timeout.NewWithContext(SearchPlacesHandler(deps), searchTimeout))
		v1.Get(prefix+"/nearby", timeout.NewWithContext(NearbyPlacesHandler(deps), 10*time.Second))
		v1.Get(prefix+"/:id", timeout.NewWithContext(GetPlaceHandler(deps), 10*time.Second))
	}
	v1.Get("/geolocation/ip", timeout.NewWithContext(IPLocationHandler(deps), 10*time.Second))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
