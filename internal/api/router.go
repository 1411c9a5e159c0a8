// Package api provides the HTTP API for Shelter Spot.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/api/handler"
	"github.com/shelterspot/shelterspot/internal/api/middleware"
	"github.com/shelterspot/shelterspot/internal/crowding"
	"github.com/shelterspot/shelterspot/internal/featureflags"
	"github.com/shelterspot/shelterspot/internal/location"
	"github.com/shelterspot/shelterspot/internal/provider/resilience"
	"github.com/shelterspot/shelterspot/internal/routing"
	"github.com/shelterspot/shelterspot/internal/shelter"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	Catalog            *shelter.Catalog
	CrowdingStore      *crowding.Store
	RoutingService     *routing.Service
	FeatureFlagService *featureflags.Service
	ProviderRegistry   *resilience.Registry
	// LocationService resolves the viewer position when a request carries
	// none; NewRouter builds a default-only service when nil.
	LocationService *location.Service
	// DB is optional; readiness skips the database check when nil.
	DB handler.Pinger
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "shelterspot-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Registry:  cfg.ProviderRegistry,
		Flags:     cfg.FeatureFlagService,
		Catalog:   cfg.Catalog,
	})
	locations := cfg.LocationService
	if locations == nil {
		locations = location.NewService(location.ServiceConfig{Logger: cfg.Logger})
	}
	shelterHandler := handler.NewShelterHandler(cfg.Catalog, cfg.CrowdingStore, locations, cfg.Logger)
	crowdingHandler := handler.NewCrowdingHandler(cfg.Catalog, cfg.CrowdingStore, cfg.FeatureFlagService, cfg.Logger)
	routeHandler := handler.NewRouteHandler(cfg.RoutingService, cfg.Catalog, cfg.FeatureFlagService, cfg.Logger)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService, cfg.Logger)

	// Create rate limit middleware for different endpoint categories
	clickRateLimit := middleware.RateLimitByIP(middleware.ClickRateLimit)         // 60 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Shelter endpoints - standard rate limiting
		r.Route("/shelters", func(r chi.Router) {
			r.With(standardRateLimit).Get("/", shelterHandler.ListShelters)
			r.Route("/{shelterId}", func(r chi.Router) {
				r.With(standardRateLimit).Get("/", shelterHandler.GetShelter)
				// Click recording gets its own budget so a busy detail
				// view cannot starve the rest of the API.
				r.With(clickRateLimit).Post("/clicks", crowdingHandler.RecordClick)
			})
		})

		// Crowding endpoints - standard rate limiting
		r.Route("/crowding", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", crowdingHandler.ListCrowding)
			r.Get("/stats", crowdingHandler.CrowdingStats)
		})

		// Walking route endpoint - expensive compute, strict rate limiting
		r.With(expensiveRateLimit).Post("/routes/walking", routeHandler.ComputeWalkingRoute)

		// Admin endpoints - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(standardRateLimit)

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
