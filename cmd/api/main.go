// Package main provides the entrypoint for the Shelter Spot API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/api"
	"github.com/shelterspot/shelterspot/internal/api/handler"
	"github.com/shelterspot/shelterspot/internal/api/middleware"
	"github.com/shelterspot/shelterspot/internal/crowding"
	"github.com/shelterspot/shelterspot/internal/database"
	"github.com/shelterspot/shelterspot/internal/featureflags"
	"github.com/shelterspot/shelterspot/internal/location"
	"github.com/shelterspot/shelterspot/internal/provider/resilience"
	"github.com/shelterspot/shelterspot/internal/routing"
	"github.com/shelterspot/shelterspot/internal/routing/tmap"
	"github.com/shelterspot/shelterspot/internal/shelter"
	"github.com/shelterspot/shelterspot/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "shelterspot-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Shelter Spot API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
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

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database. The API degrades to in-memory storage when the
	// database is unavailable: crowding data is advisory, not critical.
	var db handler.Pinger
	var crowdingRepo crowding.Repository
	var ffRepo featureflags.Repository

	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Warn().Err(err).Msg("database unavailable, using in-memory storage")
		crowdingRepo = crowding.NewInMemoryRepository()
		ffRepo = featureflags.NewInMemoryRepository()
	} else {
		defer pool.Close()
		log.Info().
			Str("host", dbConfig.Host).
			Int("port", dbConfig.Port).
			Str("database", dbConfig.Database).
			Msg("database connected")
		db = pool
		crowdingRepo = crowding.NewPostgresRepository(pool)
		ffRepo = featureflags.NewPostgresRepository(pool)
	}

	// Load the shelter catalog
	catalog := loadCatalog(log)

	// Initialize crowding store
	crowdingStore := crowding.NewStore(crowding.StoreConfig{
		Repository: crowdingRepo,
		Logger:     log,
	})
	log.Info().Int("shelters", catalog.Len()).Msg("crowding store initialized")

	// Initialize feature flags service
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize walking route provider (may be unconfigured if no app key)
	registry := resilience.NewRegistry()
	tmapClient := tmap.NewClient(tmap.ClientConfig{
		AppKey:   os.Getenv("TMAP_APP_KEY"),
		BaseURL:  os.Getenv("TMAP_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	if tmapClient.Configured() {
		log.Info().Msg("T-map walking route provider initialized")
	} else {
		log.Warn().Msg("TMAP_APP_KEY not set - walking route requests will fail; enable the routing_fallback_only flag to serve straight-line estimates")
	}

	routingService := routing.NewService(routing.ServiceConfig{
		Provider: tmapClient,
		Logger:   log,
	})

	// No position source on the server side: requests without coordinates
	// resolve to the default downtown location.
	locationService := location.NewService(location.ServiceConfig{Logger: log})

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		Catalog:            catalog,
		CrowdingStore:      crowdingStore,
		RoutingService:     routingService,
		FeatureFlagService: ffService,
		ProviderRegistry:   registry,
		LocationService:    locationService,
		DB:                 db,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// loadCatalog loads the shelter dataset from SHELTER_DATA_FILE, falling back
// to the built-in seed catalog around central Seoul.
func loadCatalog(log zerolog.Logger) *shelter.Catalog {
	path := os.Getenv("SHELTER_DATA_FILE")
	if path == "" {
		log.Warn().Msg("SHELTER_DATA_FILE not set - using built-in seed catalog")
		return shelter.SeedCatalog()
	}

	catalog, err := shelter.LoadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).
			Msg("failed to load shelter dataset, using built-in seed catalog")
		return shelter.SeedCatalog()
	}

	log.Info().Str("path", path).Int("shelters", catalog.Len()).Msg("shelter catalog loaded")
	return catalog
}
