package routing

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/geo"
)

// Walking pace used for straight-line estimates: 5 km/h, i.e. 12 minutes
// per kilometer.
const fallbackMinutesPerKm = 12.0

// Service region bounds. Requests outside are served anyway; the bounds
// only gate a warning since the provider covers South Korea only.
const (
	regionMinLat = 33.0
	regionMaxLat = 39.0
	regionMinLon = 124.0
	regionMaxLon = 132.0
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the pedestrian routing provider. May be nil, in which
	// case every route is a straight-line estimate.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache provider routes (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.0005 ~ 55m).
	// Endpoints within the same grid cell share cached routes.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale routes on provider errors before
	// degrading to a straight-line estimate (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 5 minutes).
	CleanupInterval time.Duration
}

// Service computes walking routes with caching and straight-line fallback.
//
// A provider failure never surfaces to the caller: the service first tries
// recently cached routes, then degrades to a straight-line estimate. Only
// invalid coordinates and a missing provider credential produce errors, so
// callers can tell a configuration problem from a transient outage.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration

	mu          sync.RWMutex
	cache       map[string]*cachedRoute
	lastCleanup time.Time
}

type cachedRoute struct {
	result    *RouteResult
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.0005 // ~55m, fine enough for walking endpoints
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		cache:           make(map[string]*cachedRoute),
	}
}

// FindRoute returns a walking route from origin to destination.
//
// Validation order: origin coordinates, then destination coordinates, then
// the provider credential. Coordinate and credential failures return an
// error without touching the provider; only provider failures degrade to a
// straight-line estimate.
func (s *Service) FindRoute(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, &Error{
			Provider: s.providerName(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, &Error{
			Provider: s.providerName(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}

	if s.provider == nil || !s.provider.Configured() {
		return nil, &Error{
			Provider: s.providerName(),
			Code:     "MISSING_CREDENTIAL",
			Message:  "routing provider credential not configured",
			Err:      ErrMissingCredential,
		}
	}

	if !inRegion(req.Origin) || !inRegion(req.Destination) {
		s.logger.Warn().
			Float64("origin_lat", req.Origin.Lat).
			Float64("origin_lon", req.Origin.Lon).
			Float64("dest_lat", req.Destination.Lat).
			Float64("dest_lon", req.Destination.Lon).
			Msg("route endpoints outside service region, provider coverage unlikely")
	}

	cacheKey := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for walking route")
		return cached.result, nil
	}
	s.mu.RUnlock()

	return s.fetchRoute(ctx, req, cacheKey), nil
}

// StraightLine builds the straight-line fallback route for a request: a
// two-point path with distance from the haversine formula and duration at
// walking pace.
func (s *Service) StraightLine(req RouteRequest) *RouteResult {
	km := geo.Distance(req.Origin, req.Destination)

	return &RouteResult{
		Path:            []geo.Coordinate{req.Origin, req.Destination},
		DistanceMeters:  km * 1000,
		DurationSeconds: km * fallbackMinutesPerKm * 60,
		Fallback:        true,
		Provider:        "straight-line",
		FetchedAt:       time.Now(),
	}
}

// fetchRoute fetches a route from the provider and updates the cache.
// Provider failures degrade to stale cache entries, then to StraightLine.
//
// The provider call runs outside the lock so concurrent fetches do not
// serialize behind one slow request. Two misses in the same grid cell may
// both reach the provider; the second cache write simply wins.
func (s *Service) fetchRoute(ctx context.Context, req RouteRequest, cacheKey string) *RouteResult {
	s.mu.Lock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.Unlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit after recheck")
		return cached.result
	}
	s.mu.Unlock()

	s.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Str("provider", s.provider.Name()).
		Msg("fetching walking route from provider")

	result, err := s.provider.FindWalkingRoute(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("origin_lat", req.Origin.Lat).
			Float64("origin_lon", req.Origin.Lon).
			Float64("dest_lat", req.Destination.Lat).
			Float64("dest_lon", req.Destination.Lon).
			Msg("failed to fetch walking route")

		// Stale-if-error before degrading to a straight line.
		s.mu.RLock()
		cached, ok := s.cache[cacheKey]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Str("cache_key", cacheKey).
				Msg("serving stale walking route due to provider error")
			return cached.result
		}

		return s.StraightLine(req)
	}

	now := time.Now()
	s.mu.Lock()
	s.cache[cacheKey] = &cachedRoute{
		result:    result,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded()
	s.mu.Unlock()

	s.logger.Debug().
		Str("cache_key", cacheKey).
		Float64("distance_m", result.DistanceMeters).
		Int("path_points", len(result.Path)).
		Msg("cached walking route")

	return result
}

// cacheKey generates a cache key for a route request.
// Uses grid-based quantization for both origin and destination.
func (s *Service) cacheKey(req RouteRequest) string {
	gridOriginLat := math.Floor(req.Origin.Lat/s.cacheGridSize) * s.cacheGridSize
	gridOriginLon := math.Floor(req.Origin.Lon/s.cacheGridSize) * s.cacheGridSize
	gridDestLat := math.Floor(req.Destination.Lat/s.cacheGridSize) * s.cacheGridSize
	gridDestLon := math.Floor(req.Destination.Lon/s.cacheGridSize) * s.cacheGridSize

	return fmt.Sprintf("%.4f,%.4f:%.4f,%.4f",
		gridOriginLat, gridOriginLon,
		gridDestLat, gridDestLon,
	)
}

// cleanupIfNeeded removes expired entries if cleanup interval has passed.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired route cache entries")
	}
}

// InvalidateCache clears all cached routes.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoute)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	stale := 0

	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stale++
		}
	}

	return CacheStats{
		TotalEntries: len(s.cache),
		FreshEntries: fresh,
		StaleEntries: stale,
		Provider:     s.providerName(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.providerName()
}

// ProviderConfigured reports whether a credentialed provider is attached.
// When false, FindRoute fails with ErrMissingCredential.
func (s *Service) ProviderConfigured() bool {
	return s.provider != nil && s.provider.Configured()
}

func (s *Service) providerName() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

func inRegion(c geo.Coordinate) bool {
	return c.Lat >= regionMinLat && c.Lat <= regionMaxLat &&
		c.Lon >= regionMinLon && c.Lon <= regionMaxLon
}
