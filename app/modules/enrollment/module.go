package enrollment

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	catalogservice "github.com/oh-sansi/olympiad-backend/app/modules/catalog/application"
	enrollmentservice "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/application"
	enrollmenthandlers "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/infrastructure/handlers"
	enrollmentdb "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/infrastructure/repositories"
	"github.com/oh-sansi/olympiad-backend/internal/observability"
)

// Module bundles the import pipeline and its HTTP surface.
type Module struct {
	Service *enrollmentservice.ImportService
}

// NewModule wires the enrollment module and mounts its routes.
func NewModule(
	db *bun.DB,
	catalogCache *catalogservice.Cache,
	logger *slog.Logger,
	metrics observability.ImportMetrics,
	tracer trace.Tracer,
	parallelism int,
	router chi.Router,
) *Module {
	repo := enrollmentdb.NewRepository()
	writer := enrollmentservice.NewWriter(repo, db, logger)
	service := enrollmentservice.NewImportService(catalogCache, writer, logger, metrics, tracer, parallelism)

	enrollmenthandlers.NewImportHandler(service, logger).RegisterRoutes(router)

	return &Module{Service: service}
}
