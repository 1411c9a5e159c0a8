// Package tmap provides a client for the SK open API pedestrian routes
// endpoint.
package tmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/geo"
	"github.com/shelterspot/shelterspot/internal/provider/resilience"
	"github.com/shelterspot/shelterspot/internal/routing"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "tmap"

	// DefaultBaseURL is the SK open API base URL.
	DefaultBaseURL = "https://apis.openapi.sk.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// coordinateSystem is the WGS84 lat/lon coordinate system identifier
	// used for both request and response coordinates.
	coordinateSystem = "WGS84GEO"

	// pathEpsilon is the per-axis degree threshold under which consecutive
	// path vertices are considered duplicates and collapsed.
	pathEpsilon = 1e-5
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the T map client.
type ClientConfig struct {
	// AppKey is the SK open API application key (required).
	AppKey string

	// BaseURL is the API base URL (optional, defaults to the SK open API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a T map pedestrian routing API client.
type Client struct {
	appKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new T map client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		if cfg.Registry != nil {
			clientCfg.Registry = cfg.Registry
		}
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		appKey:     cfg.AppKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Configured reports whether an application key is set.
func (c *Client) Configured() bool {
	return c.appKey != ""
}

// FindWalkingRoute retrieves a pedestrian route between two points.
func (c *Client) FindWalkingRoute(ctx context.Context, req routing.RouteRequest) (*routing.RouteResult, error) {
	if !c.Configured() {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "NO_APP_KEY",
			Message:  "no application key configured",
			Err:      routing.ErrMissingCredential,
		}
	}

	originName := req.OriginName
	if originName == "" {
		originName = "출발지"
	}
	destName := req.DestinationName
	if destName == "" {
		destName = "도착지"
	}

	tmapReq := pedestrianRequest{
		StartX:       formatCoord(req.Origin.Lon),
		StartY:       formatCoord(req.Origin.Lat),
		EndX:         formatCoord(req.Destination.Lon),
		EndY:         formatCoord(req.Destination.Lat),
		ReqCoordType: coordinateSystem,
		ResCoordType: coordinateSystem,
		StartName:    originName,
		EndName:      destName,
	}

	body, err := json.Marshal(tmapReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/tmap/routes/pedestrian?version=1", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("appKey", c.appKey)

	c.logger.Debug().
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting pedestrian route from tmap")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp.StatusCode, respBody)
	}

	var collection featureCollection
	if err := json.Unmarshal(respBody, &collection); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result, err := c.toRouteResult(&collection)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Float64("distance_m", result.DistanceMeters).
		Int("path_points", len(result.Path)).
		Int("turns", len(result.Turns)).
		Msg("received pedestrian route from tmap")

	return result, nil
}

// handleErrorResponse maps provider error responses to domain errors.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var tmapErr errorResponse
	message := ""
	if err := json.Unmarshal(body, &tmapErr); err == nil {
		message = tmapErr.Error.Message
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check application key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case statusCode == http.StatusBadRequest:
		if message == "" {
			message = "provider rejected the route request"
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  message,
			Err:      routing.ErrNoRouteFound,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	default:
		if message == "" {
			message = fmt.Sprintf("routing provider returned status %d", statusCode)
		}
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  message,
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toRouteResult converts the feature collection to the domain model.
//
// LineString features carry the route geometry; Point features carry the
// turn instructions. Totals come from summing the per-feature distance and
// time properties across the whole collection.
func (c *Client) toRouteResult(collection *featureCollection) (*routing.RouteResult, error) {
	result := &routing.RouteResult{
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}

	for i := range collection.Features {
		f := &collection.Features[i]

		result.DistanceMeters += f.Properties.Distance
		result.DurationSeconds += f.Properties.Time

		switch f.Geometry.Type {
		case "LineString":
			var coords [][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &coords); err != nil {
				return nil, fmt.Errorf("decoding line geometry: %w", err)
			}
			for _, pair := range coords {
				if len(pair) < 2 {
					continue
				}
				appendVertex(&result.Path, geo.Coordinate{Lat: pair[1], Lon: pair[0]})
			}

		case "Point":
			var pair []float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &pair); err != nil {
				return nil, fmt.Errorf("decoding point geometry: %w", err)
			}
			if len(pair) < 2 {
				continue
			}

			if f.Properties.Description != "" {
				result.Turns = append(result.Turns, routing.Turn{
					Description: f.Properties.Description,
					Coord:       geo.Coordinate{Lat: pair[1], Lon: pair[0]},
					Type:        f.Properties.TurnType,
				})
			}
		}
	}

	if len(result.Path) < 2 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "EMPTY_GEOMETRY",
			Message:  "provider returned no usable route geometry",
			Err:      routing.ErrNoRouteFound,
		}
	}

	return result, nil
}

// appendVertex appends a path vertex, collapsing consecutive points closer
// than pathEpsilon on both axes. Adjacent line features share endpoints.
func appendVertex(path *[]geo.Coordinate, v geo.Coordinate) {
	if n := len(*path); n > 0 {
		last := (*path)[n-1]
		if math.Abs(last.Lat-v.Lat) < pathEpsilon && math.Abs(last.Lon-v.Lon) < pathEpsilon {
			return
		}
	}
	*path = append(*path, v)
}

// formatCoord renders a coordinate component as the decimal string the API
// expects.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
