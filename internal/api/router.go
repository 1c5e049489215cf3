// Package api provides the HTTP API for airtrends.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/airtrends/airtrends/internal/api/handler"
	"github.com/airtrends/airtrends/internal/api/middleware"
	"github.com/airtrends/airtrends/internal/collector"
	"github.com/airtrends/airtrends/internal/provider/resilience"
	"github.com/airtrends/airtrends/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version   string
	BuildTime string
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	Collector *collector.Collector
	Store     *session.Store
	Registry  *resilience.Registry
}

// NewRouter creates a chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)
	metadataHandler := handler.NewMetadataHandler()
	collectionHandler := handler.NewCollectionHandler(cfg.Collector, cfg.Store, cfg.Logger)

	collectionRateLimit := middleware.RateLimitByIP(middleware.CollectionRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.Route("/metadata", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/sites", metadataHandler.ListSites)
			r.Get("/pollutants", metadataHandler.ListPollutants)
			r.Get("/enums", metadataHandler.GetEnums)
		})

		r.Route("/collections", func(r chi.Router) {
			// Each run fans out many upstream requests, so runs get the
			// tighter limit class.
			r.With(collectionRateLimit).Post("/", collectionHandler.RunCollection)

			r.Group(func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/latest", collectionHandler.GetLatest)
				r.Get("/latest/export.csv", collectionHandler.ExportCSV)
				r.Delete("/latest", collectionHandler.ClearLatest)
			})
		})
	})

	return r
}
