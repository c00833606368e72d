package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/spotfinder/internal/adapters/postgres"
	"github.com/samirrijal/spotfinder/internal/adapters/valkey"
	"github.com/samirrijal/spotfinder/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Search *usecases.SearchService
	Locate *usecases.LocateService
	NATS   *nats.Conn
	DB     *postgres.DB
	Cache  *valkey.Cache
	// Version is reported by the health endpoint.
	Version string
}
