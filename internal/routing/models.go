// Package routing computes walking routes from a visitor to a shelter. It
// queries a pedestrian routing provider and degrades to a straight-line
// estimate whenever the provider cannot serve.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/shelterspot/shelterspot/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates the provider could not produce a pedestrian route between the points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the provider API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrMissingCredential indicates no provider API key is configured.
	ErrMissingCredential = errors.New("routing provider credential missing")
)

// Provider defines the interface for pedestrian routing providers.
type Provider interface {
	// FindWalkingRoute retrieves a walking route between two points.
	FindWalkingRoute(ctx context.Context, req RouteRequest) (*RouteResult, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// Configured reports whether the provider holds a usable credential.
	Configured() bool
}

// RouteRequest is the request for computing a walking route.
type RouteRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate

	// OriginName and DestinationName label the endpoints in provider
	// requests and turn instructions. Optional.
	OriginName      string
	DestinationName string
}

// RouteResult is a computed walking route.
type RouteResult struct {
	// Path is the route geometry, ordered origin to destination. Always
	// holds at least two points.
	Path []geo.Coordinate

	// Turns are the turn-by-turn instructions. Empty for fallback routes.
	Turns []Turn

	DistanceMeters  float64
	DurationSeconds float64

	// Fallback is true when the result is a straight-line estimate rather
	// than a provider route.
	Fallback bool

	Provider  string
	FetchedAt time.Time
}

// Turn is a single turn-by-turn instruction.
type Turn struct {
	Description string         // Instruction text, e.g. "좌회전 후 120m 직진"
	Coord       geo.Coordinate // Where the turn happens
	Type        int            // Provider turn type code
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
