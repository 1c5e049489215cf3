// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration.
type AppConfig struct {
	// Port is the HTTP listen port.
	Port string

	// Environment names the deployment environment (development, production).
	Environment string

	// BaseURL overrides the upstream London Air API base URL.
	BaseURL string

	// AnnualTimeout bounds annual report requests.
	AnnualTimeout time.Duration

	// HourlyTimeout bounds bulk hourly data requests.
	HourlyTimeout time.Duration

	// AnnualWorkers is the collector pool size for annual/monthly runs.
	AnnualWorkers int

	// BulkWorkers is the collector pool size for daily/hourly runs.
	BulkWorkers int

	// OTLPEndpoint is the OpenTelemetry collector endpoint.
	OTLPEndpoint string

	// TelemetryEnabled toggles OTLP export.
	TelemetryEnabled bool
}

// Load reads configuration from a .env file (when present) and the
// environment, applying defaults for anything unset.
func Load() (*AppConfig, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &AppConfig{
		Port:             getenvDefault("APP_PORT", "8080"),
		Environment:      getenvDefault("APP_ENV", "development"),
		BaseURL:          os.Getenv("LONDONAIR_BASE_URL"),
		OTLPEndpoint:     getenvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TelemetryEnabled: os.Getenv("OTEL_ENABLED") == "true",
	}

	var err error
	if cfg.AnnualTimeout, err = getenvDuration("ANNUAL_FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.HourlyTimeout, err = getenvDuration("HOURLY_FETCH_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.AnnualWorkers, err = getenvInt("ANNUAL_WORKERS", 8); err != nil {
		return nil, err
	}
	if cfg.BulkWorkers, err = getenvInt("BULK_WORKERS", 4); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return n, nil
}
