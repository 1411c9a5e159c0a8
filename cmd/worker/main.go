// Package main provides the entrypoint for the Shelter Spot background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/crowding"
	"github.com/shelterspot/shelterspot/internal/database"
	"github.com/shelterspot/shelterspot/internal/featureflags"
	"github.com/shelterspot/shelterspot/internal/routing"
	"github.com/shelterspot/shelterspot/internal/routing/tmap"
	"github.com/shelterspot/shelterspot/internal/shelter"
	"github.com/shelterspot/shelterspot/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "shelterspot-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Shelter Spot worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database; fall back to in-memory storage when unavailable
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
		log.Info().Str("database", dbConfig.Database).Msg("database connected")
		crowdingRepo = crowding.NewPostgresRepository(pool)
		ffRepo = featureflags.NewPostgresRepository(pool)
	}

	crowdingStore := crowding.NewStore(crowding.StoreConfig{
		Repository: crowdingRepo,
		Logger:     log,
	})

	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})

	catalog := loadCatalog(log)

	tmapClient := tmap.NewClient(tmap.ClientConfig{
		AppKey:  os.Getenv("TMAP_APP_KEY"),
		BaseURL: os.Getenv("TMAP_BASE_URL"),
		Logger:  log,
	})
	if !tmapClient.Configured() {
		log.Warn().Msg("TMAP_APP_KEY not set - route cache warming will be skipped")
	}

	routingService := routing.NewService(routing.ServiceConfig{
		Provider: tmapClient,
		Logger:   log,
	})

	maintenanceJob := worker.NewMaintenanceJob(worker.MaintenanceJobConfig{
		Config:         worker.DefaultMaintenanceConfig(),
		Logger:         log,
		CrowdingStore:  crowdingStore,
		RoutingService: routingService,
		Catalog:        catalog,
		FeatureFlags:   ffService,
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Prefer Pub/Sub driven jobs; fall back to an interval loop when the
	// subscription is not configured.
	projectID := os.Getenv("PUBSUB_PROJECT_ID")
	subscription := os.Getenv("PUBSUB_SUBSCRIPTION")
	if projectID != "" && subscription != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscription,
			MaintenanceJob:   maintenanceJob,
			CrowdingStore:    crowdingStore,
			FeatureFlags:     ffService,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer pubsubHandler.Close()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("pubsub handler stopped")
			}
		}()
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID/PUBSUB_SUBSCRIPTION not set - running maintenance on a timer")
		go func() {
			ticker := time.NewTicker(maintenanceInterval())
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					maintenanceJob.Run(ctx)
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}

func maintenanceInterval() time.Duration {
	if v := os.Getenv("MAINTENANCE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 10 * time.Minute
}

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
