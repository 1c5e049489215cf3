// Package main provides the entrypoint for the airtrends API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/airtrends/airtrends/internal/airquality/londonair"
	"github.com/airtrends/airtrends/internal/api"
	"github.com/airtrends/airtrends/internal/api/middleware"
	"github.com/airtrends/airtrends/internal/collector"
	"github.com/airtrends/airtrends/internal/config"
	"github.com/airtrends/airtrends/internal/provider/resilience"
	"github.com/airtrends/airtrends/internal/session"
	"github.com/airtrends/airtrends/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "airtrends-api"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting airtrends API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TelemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.TelemetryEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	registry := resilience.NewRegistry()

	client := londonair.NewClient(londonair.ClientConfig{
		BaseURL: cfg.BaseURL,
		AnnualClient: resilience.NewClient(resilience.ClientConfig{
			Name:    londonair.ProviderName,
			Timeout: cfg.AnnualTimeout,
		}),
		HourlyClient: resilience.NewClient(resilience.ClientConfig{
			Name:    londonair.ProviderName + "-bulk",
			Timeout: cfg.HourlyTimeout,
		}),
		Registry: registry,
	})

	coll := collector.New(collector.Config{
		Fetcher:       client,
		Logger:        log,
		AnnualWorkers: cfg.AnnualWorkers,
		BulkWorkers:   cfg.BulkWorkers,
	})

	store := session.NewStore()

	router := api.NewRouter(api.RouterConfig{
		Version:   Version,
		BuildTime: BuildTime,
		Logger:    log,
		Metrics:   metrics,
		Collector: coll,
		Store:     store,
		Registry:  registry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
