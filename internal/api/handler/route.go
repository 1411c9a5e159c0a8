package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/api/models"
	"github.com/shelterspot/shelterspot/internal/api/response"
	"github.com/shelterspot/shelterspot/internal/featureflags"
	"github.com/shelterspot/shelterspot/internal/geo"
	"github.com/shelterspot/shelterspot/internal/routing"
	"github.com/shelterspot/shelterspot/internal/shelter"
	"github.com/shelterspot/shelterspot/pkg/polyline"
)

// maxRouteSessions bounds the per-client session map. Hitting the bound
// resets the map; in-flight requests keep their session via the captured
// pointer and only lose supersede tracking.
const maxRouteSessions = 4096

// RouteHandler handles walking route endpoints. Each client gets a route
// session so a newer request from the same client cancels the one still in
// flight.
type RouteHandler struct {
	routes  *routing.Service
	catalog *shelter.Catalog
	flags   *featureflags.Service
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*routing.Session
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routes *routing.Service, catalog *shelter.Catalog, flags *featureflags.Service, logger zerolog.Logger) *RouteHandler {
	return &RouteHandler{
		routes:   routes,
		catalog:  catalog,
		flags:    flags,
		logger:   logger.With().Str("handler", "route").Logger(),
		sessions: make(map[string]*routing.Session),
	}
}

// sessionFor returns the route session for the given client key, creating
// one on first use.
func (h *RouteHandler) sessionFor(key string) *routing.Session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.sessions) >= maxRouteSessions {
		h.sessions = make(map[string]*routing.Session)
	}
	session, ok := h.sessions[key]
	if !ok {
		session = routing.NewSession(h.routes, h.logger)
		h.sessions[key] = session
	}
	return session
}

// clientKey identifies the requesting client: the X-Client-Id header when
// present, otherwise the remote host.
func clientKey(r *http.Request) string {
	if id := r.Header.Get("X-Client-Id"); id != "" {
		return id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ComputeWalkingRoute handles POST /v1/routes/walking - compute a walking
// route from the viewer to a shelter or arbitrary destination.
func (h *RouteHandler) ComputeWalkingRoute(w http.ResponseWriter, r *http.Request) {
	var input models.WalkingRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if input.Origin == nil {
		response.BadRequest(w, r, "origin is required", []models.FieldError{
			{Field: "origin", Message: "required"},
		})
		return
	}

	req, ok := h.buildRouteRequest(w, r, input)
	if !ok {
		return
	}

	var (
		result *routing.RouteResult
		err    error
	)
	if h.flags != nil && h.flags.IsFallbackOnlyRouting(r.Context()) {
		result = h.routes.StraightLine(req)
	} else {
		result, err = h.sessionFor(clientKey(r)).Request(r.Context(), req)
	}

	if err != nil {
		h.writeRouteError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, toWalkingRouteResponse(result))
}

// buildRouteRequest resolves the destination from the request body. Writes
// an error response and returns false when the destination cannot be resolved.
func (h *RouteHandler) buildRouteRequest(w http.ResponseWriter, r *http.Request, input models.WalkingRouteRequest) (routing.RouteRequest, bool) {
	req := routing.RouteRequest{
		Origin: geo.Coordinate{Lat: input.Origin.Lat, Lon: input.Origin.Lon},
	}
	if input.OriginName != nil {
		req.OriginName = *input.OriginName
	}
	if input.DestinationName != nil {
		req.DestinationName = *input.DestinationName
	}

	switch {
	case input.ShelterID != nil:
		s, err := h.catalog.Get(*input.ShelterID)
		if err != nil {
			if errors.Is(err, shelter.ErrShelterNotFound) {
				response.NotFound(w, r, "shelter "+*input.ShelterID+" not found")
				return req, false
			}
			response.InternalError(w, r, "failed to load shelter")
			return req, false
		}
		req.Destination = s.Coord
		if req.DestinationName == "" {
			req.DestinationName = s.Name
		}
	case input.Destination != nil:
		req.Destination = geo.Coordinate{Lat: input.Destination.Lat, Lon: input.Destination.Lon}
	default:
		response.BadRequest(w, r, "either shelterId or destination is required", []models.FieldError{
			{Field: "shelterId", Message: "required if destination not provided"},
			{Field: "destination", Message: "required if shelterId not provided"},
		})
		return req, false
	}

	return req, true
}

func (h *RouteHandler) writeRouteError(w http.ResponseWriter, r *http.Request, err error) {
	var routeErr *routing.Error
	if errors.Is(err, routing.ErrInvalidCoordinates) {
		fields := []models.FieldError{}
		if errors.As(err, &routeErr) {
			switch routeErr.Code {
			case "INVALID_ORIGIN":
				fields = append(fields, models.FieldError{Field: "origin", Message: routeErr.Message})
			case "INVALID_DESTINATION":
				fields = append(fields, models.FieldError{Field: "destination", Message: routeErr.Message})
			}
		}
		response.BadRequest(w, r, "invalid route coordinates", fields)
		return
	}

	if errors.Is(err, routing.ErrSuperseded) {
		response.Conflict(w, r, "route request superseded by a newer request")
		return
	}

	if errors.Is(err, routing.ErrMissingCredential) {
		h.logger.Error().Err(err).Msg("walking route provider not configured")
		response.ServiceUnavailable(w, r, "walking route provider is not configured")
		return
	}

	h.logger.Error().Err(err).Msg("walking route computation failed")
	response.ServiceUnavailable(w, r, "walking route temporarily unavailable")
}

func toWalkingRouteResponse(result *routing.RouteResult) models.WalkingRouteResponse {
	coords := make([]polyline.Coordinate, len(result.Path))
	for i, p := range result.Path {
		coords[i] = polyline.Coordinate{Lat: p.Lat, Lon: p.Lon}
	}

	turns := make([]models.Turn, 0, len(result.Turns))
	for _, t := range result.Turns {
		turns = append(turns, models.Turn{
			Description: t.Description,
			Point:       models.Point{Lat: t.Coord.Lat, Lon: t.Coord.Lon},
			Type:        t.Type,
		})
	}

	generatedAt := result.FetchedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	return models.WalkingRouteResponse{
		Provider:        result.Provider,
		Fallback:        result.Fallback,
		DistanceMeters:  result.DistanceMeters,
		DistanceLabel:   routing.FormatRouteDistance(result.DistanceMeters),
		DurationSeconds: result.DurationSeconds,
		DurationLabel:   routing.FormatDuration(result.DurationSeconds),
		Polyline:        polyline.Encode(coords),
		Turns:           turns,
		GeneratedAt:     models.Timestamp(generatedAt),
	}
}
