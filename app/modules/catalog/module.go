package catalog

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	catalogservice "github.com/oh-sansi/olympiad-backend/app/modules/catalog/application"
	cataloghandlers "github.com/oh-sansi/olympiad-backend/app/modules/catalog/infrastructure/handlers"
	catalogdb "github.com/oh-sansi/olympiad-backend/app/modules/catalog/infrastructure/repositories"
)

// Module bundles the catalog cache and its HTTP surface.
type Module struct {
	Cache *catalogservice.Cache
}

// NewModule wires the catalog module and mounts its routes.
func NewModule(db *bun.DB, logger *slog.Logger, ttl time.Duration, router chi.Router) *Module {
	repo := &catalogdb.CatalogDBImpl{DB: db}

	opts := []catalogservice.Option{}
	if ttl > 0 {
		opts = append(opts, catalogservice.WithTTL(ttl))
	}
	cache := catalogservice.NewCache(repo, logger, opts...)

	cataloghandlers.NewCatalogHandler(cache, logger).RegisterRoutes(router)

	return &Module{Cache: cache}
}
