package worker

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/crowding"
	"github.com/shelterspot/shelterspot/internal/featureflags"
	"github.com/shelterspot/shelterspot/internal/geo"
	"github.com/shelterspot/shelterspot/internal/routing"
	"github.com/shelterspot/shelterspot/internal/shelter"
)

// MaintenanceJob handles background maintenance: click log compaction and
// route cache warming.
type MaintenanceJob struct {
	config MaintenanceConfig
	logger zerolog.Logger

	// Dependencies (optional, nil if not configured)
	store   *crowding.Store
	routes  *routing.Service
	catalog *shelter.Catalog
	flags   *featureflags.Service

	// Metrics
	metrics *MaintenanceMetrics
}

// MaintenanceMetrics tracks maintenance job statistics. CompactionRuns and
// RoutesWarmed are updated with atomic adds from worker goroutines while a
// run is in progress; the remaining fields mutate only under the mutex.
type MaintenanceMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns      int64
	CompactionRuns int64
	RoutesWarmed   int64
	FailedWarms    int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// MaintenanceJobConfig holds configuration for creating a MaintenanceJob.
type MaintenanceJobConfig struct {
	Config         MaintenanceConfig
	Logger         zerolog.Logger
	CrowdingStore  *crowding.Store
	RoutingService *routing.Service
	Catalog        *shelter.Catalog
	FeatureFlags   *featureflags.Service
}

// NewMaintenanceJob creates a new maintenance job processor.
func NewMaintenanceJob(cfg MaintenanceJobConfig) *MaintenanceJob {
	config := cfg.Config
	if len(config.Targets) == 0 {
		config = DefaultMaintenanceConfig()
	}

	return &MaintenanceJob{
		config:  config,
		logger:  cfg.Logger,
		store:   cfg.CrowdingStore,
		routes:  cfg.RoutingService,
		catalog: cfg.Catalog,
		flags:   cfg.FeatureFlags,
		metrics: &MaintenanceMetrics{},
	}
}

// MaintenanceResult contains the result of a maintenance run.
type MaintenanceResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalOrigins int
	Compacted    bool
	RoutesWarmed int
	Failed       int
	Errors       []WarmError
}

// WarmError represents an error while warming a route.
type WarmError struct {
	Origin    Point
	ShelterID string
	Error     string
}

// Run executes the maintenance job: compaction first, then route warming
// across all configured origins.
func (j *MaintenanceJob) Run(ctx context.Context) *MaintenanceResult {
	startTime := time.Now()
	result := &MaintenanceResult{
		StartTime:    startTime,
		TotalOrigins: j.config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_origins", result.TotalOrigins).
		Int("concurrency", j.config.Concurrency).
		Msg("starting maintenance job")

	result.Compacted = j.compactClicks(ctx)

	if j.config.WarmRoutes && j.routes != nil && j.catalog != nil {
		if j.routes.ProviderConfigured() {
			j.warmRoutes(ctx, result)
		} else {
			j.logger.Info().Msg("routing provider not configured, skipping route warming")
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	// Update metrics
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Bool("compacted", result.Compacted).
		Int("routes_warmed", result.RoutesWarmed).
		Int("failed", result.Failed).
		Msg("maintenance job completed")

	return result
}

// compactClicks evicts expired click events from the persisted log.
// Returns true when compaction ran.
func (j *MaintenanceJob) compactClicks(ctx context.Context) bool {
	if !j.config.CompactClicks || j.store == nil {
		return false
	}
	if j.flags != nil && j.flags.IsClickCompactionDisabled(ctx) {
		j.logger.Info().Msg("click compaction disabled by feature flag")
		return false
	}

	j.store.Compact(ctx, time.Now())
	atomic.AddInt64(&j.metrics.CompactionRuns, 1)
	return true
}

type originResult struct {
	origin Point
	warmed int
	errors []WarmError
}

func (j *MaintenanceJob) warmRoutes(ctx context.Context, result *MaintenanceResult) {
	origins := j.config.AllPoints()

	originsChan := make(chan Point, len(origins))
	resultsChan := make(chan originResult, len(origins))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, originsChan, resultsChan)
		}()
	}

	for _, p := range origins {
		originsChan <- p
	}
	close(originsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for or := range resultsChan {
		result.RoutesWarmed += or.warmed
		result.Failed += len(or.errors)
		result.Errors = append(result.Errors, or.errors...)
	}
}

func (j *MaintenanceJob) warmWorker(ctx context.Context, origins <-chan Point, results chan<- originResult) {
	for origin := range origins {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmOrigin(ctx, origin)
		}
	}
}

// warmOrigin pre-computes routes from the origin to its nearest shelters so
// the first user in the area hits a warm cache.
func (j *MaintenanceJob) warmOrigin(ctx context.Context, origin Point) originResult {
	result := originResult{origin: origin}

	warmCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	from := geo.Coordinate{Lat: origin.Lat, Lon: origin.Lon}
	for _, s := range j.nearestShelters(from) {
		_, err := j.routes.FindRoute(warmCtx, routing.RouteRequest{
			Origin:          from,
			Destination:     s.Coord,
			DestinationName: s.Name,
		})
		if err != nil {
			result.errors = append(result.errors, WarmError{
				Origin:    origin,
				ShelterID: s.ID,
				Error:     err.Error(),
			})
			continue
		}
		result.warmed++
		atomic.AddInt64(&j.metrics.RoutesWarmed, 1)
	}

	return result
}

func (j *MaintenanceJob) nearestShelters(origin geo.Coordinate) []shelter.Shelter {
	shelters := j.catalog.List()
	sort.Slice(shelters, func(a, b int) bool {
		return geo.Distance(origin, shelters[a].Coord) < geo.Distance(origin, shelters[b].Coord)
	})

	count := j.config.WarmShelterCount
	if count <= 0 {
		count = DefaultMaintenanceConfig().WarmShelterCount
	}
	if count > len(shelters) {
		count = len(shelters)
	}
	return shelters[:count]
}

func (j *MaintenanceJob) updateMetrics(result *MaintenanceResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.FailedWarms += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *MaintenanceJob) GetMetrics() MaintenanceMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return MaintenanceMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		CompactionRuns:  atomic.LoadInt64(&j.metrics.CompactionRuns),
		RoutesWarmed:    atomic.LoadInt64(&j.metrics.RoutesWarmed),
		FailedWarms:     j.metrics.FailedWarms,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *MaintenanceJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"compaction_runs":   m.CompactionRuns,
		"routes_warmed":     m.RoutesWarmed,
		"failed_warms":      m.FailedWarms,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
