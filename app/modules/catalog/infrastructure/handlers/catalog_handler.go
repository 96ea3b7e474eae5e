package cataloghandlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogservice "github.com/oh-sansi/olympiad-backend/app/modules/catalog/application"
)

// CatalogHandler exposes the manual cache invalidation operation used by
// administrators after editing areas, levels or categories.
type CatalogHandler struct {
	cache  *catalogservice.Cache
	logger *slog.Logger
}

// NewCatalogHandler creates the handler.
func NewCatalogHandler(cache *catalogservice.Cache, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{cache: cache, logger: logger}
}

// RegisterRoutes mounts the catalog routes on the router.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/catalog/invalidate", h.handleInvalidate)
}

func (h *CatalogHandler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}
