package routing

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// ErrSuperseded indicates a newer route request replaced this one before it
// completed.
var ErrSuperseded = errors.New("route request superseded by a newer request")

// Session serializes route requests for a single viewer with last-request-
// wins semantics: starting a new request cancels the in-flight one, and a
// superseded request never publishes its result even if it finishes after
// the newer one.
type Session struct {
	service *Service
	logger  zerolog.Logger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *RouteResult
}

// NewSession creates a route session over the given service.
func NewSession(service *Service, logger zerolog.Logger) *Session {
	return &Session{service: service, logger: logger}
}

// Request computes a route, cancelling any in-flight request for this
// session. Returns ErrSuperseded when a newer request arrived while this one
// was running.
func (s *Session) Request(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	defer cancel()

	result, err := s.service.FindRoute(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logger.Debug().
			Uint64("seq", seq).
			Uint64("latest", s.seq).
			Msg("discarding superseded route result")
		return nil, ErrSuperseded
	}

	if err != nil {
		return nil, err
	}

	s.current = result
	return result, nil
}

// Current returns the most recently published route, or nil when no request
// has completed yet.
func (s *Session) Current() *RouteResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Clear drops the published route and cancels any in-flight request.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	s.current = nil
}
