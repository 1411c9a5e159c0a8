// Package location resolves the viewer's position, caching recent fixes and
// defaulting to central Seoul when no position source is available.
package location

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/geo"
)

// ErrUnavailable indicates the position source produced no fix.
var ErrUnavailable = errors.New("location source unavailable")

// Default is the fallback position, Seoul City Hall.
var Default = geo.Coordinate{Lat: 37.5666103, Lon: 126.9783882}

// Source produces position fixes, typically backed by a device or browser
// geolocation bridge.
type Source interface {
	// Locate returns the current position. Implementations should honor
	// context cancellation.
	Locate(ctx context.Context) (geo.Coordinate, error)
}

// Fix is a resolved position with its provenance.
type Fix struct {
	Coord geo.Coordinate

	// Default is true when the fix is the fallback position rather than a
	// real source fix.
	Default bool

	// Cached is true when the fix was served from the recent-fix cache
	// without consulting the source.
	Cached bool

	ResolvedAt time.Time
}

// ServiceConfig holds configuration for the location service.
type ServiceConfig struct {
	// Source is the position source. May be nil, in which case every
	// resolution yields the default position.
	Source Source

	// Logger for service operations.
	Logger zerolog.Logger

	// Timeout bounds a single source lookup (default: 10s).
	Timeout time.Duration

	// MaxFixAge is how long a previous fix may be reused without consulting
	// the source again (default: 60s).
	MaxFixAge time.Duration
}

// Service resolves viewer positions. A source failure never surfaces: the
// service falls back to the most recent fix, then to the default position.
type Service struct {
	source    Source
	logger    zerolog.Logger
	timeout   time.Duration
	maxFixAge time.Duration

	mu      sync.Mutex
	lastFix *Fix
}

// NewService creates a new location service.
func NewService(cfg ServiceConfig) *Service {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	maxFixAge := cfg.MaxFixAge
	if maxFixAge == 0 {
		maxFixAge = time.Minute
	}

	return &Service{
		source:    cfg.Source,
		logger:    cfg.Logger,
		timeout:   timeout,
		maxFixAge: maxFixAge,
	}
}

// Resolve returns the viewer's position at the given time. A fix younger
// than MaxFixAge is served from cache. Otherwise the source is consulted
// under the configured timeout; on failure the stale fix or, lacking one,
// the default position is returned.
func (s *Service) Resolve(ctx context.Context, now time.Time) Fix {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastFix != nil && !s.lastFix.Default && now.Sub(s.lastFix.ResolvedAt) < s.maxFixAge {
		fix := *s.lastFix
		fix.Cached = true
		return fix
	}

	if s.source == nil {
		return s.defaultFix(now)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coord, err := s.source.Locate(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("position source failed, using fallback")
		if s.lastFix != nil && !s.lastFix.Default {
			fix := *s.lastFix
			fix.Cached = true
			return fix
		}
		return s.defaultFix(now)
	}

	if err := coord.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("position source returned invalid coordinates")
		return s.defaultFix(now)
	}

	fix := Fix{Coord: coord, ResolvedAt: now}
	s.lastFix = &fix

	s.logger.Debug().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Msg("position resolved")

	return fix
}

// Invalidate drops the cached fix, forcing the next Resolve to consult the
// source.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFix = nil
}

func (s *Service) defaultFix(now time.Time) Fix {
	return Fix{Coord: Default, Default: true, ResolvedAt: now}
}
