package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"

	"github.com/oh-sansi/olympiad-backend/app/modules/catalog"
	"github.com/oh-sansi/olympiad-backend/app/modules/enrollment"
	"github.com/oh-sansi/olympiad-backend/config"
	"github.com/oh-sansi/olympiad-backend/internal/db/bundb"
	"github.com/oh-sansi/olympiad-backend/internal/observability"
)

// App wires the modules together and owns the HTTP server.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	DB         *bun.DB
	Router     chi.Router
	Catalog    *catalog.Module
	Enrollment *enrollment.Module

	metricsHandler http.Handler
	server         *http.Server
	metricsServer  *http.Server
}

// NewApp builds the application from configuration.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.Observability.Environment)

	db, err := bundb.NewBunDB(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewImportMetrics(registry)
	tracer := otel.Tracer("olympiad-backend")

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	if cfg.Observability.MetricsAddress == "" {
		// Without a dedicated metrics listener, scrape from the API port.
		router.Handle("/metrics", metricsHandler)
	}
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	catalogModule := catalog.NewModule(db, logger, cfg.Catalog.TTL, router)
	enrollmentModule := enrollment.NewModule(
		db, catalogModule.Cache, logger, metrics, tracer, cfg.Import.Parallelism, router,
	)

	logger.InfoContext(ctx, "application initialized",
		slog.String("http_address", cfg.HTTP.Address),
	)

	return &App{
		Config:         cfg,
		Logger:         logger,
		DB:             db,
		Router:         router,
		Catalog:        catalogModule,
		Enrollment:     enrollmentModule,
		metricsHandler: metricsHandler,
	}, nil
}

// Run serves HTTP until the context is canceled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.server = &http.Server{
		Addr:              a.Config.HTTP.Address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		a.Logger.Info("http server listening", slog.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	if addr := a.Config.Observability.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metricsHandler)
		a.metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			a.Logger.Info("metrics server listening", slog.String("address", addr))
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.DB.Close()
}
