package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/api/models"
	"github.com/shelterspot/shelterspot/internal/api/response"
	"github.com/shelterspot/shelterspot/internal/crowding"
	"github.com/shelterspot/shelterspot/internal/geo"
	"github.com/shelterspot/shelterspot/internal/location"
	"github.com/shelterspot/shelterspot/internal/ranking"
	"github.com/shelterspot/shelterspot/internal/shelter"
)

// ShelterHandler handles shelter listing and detail endpoints.
type ShelterHandler struct {
	catalog   *shelter.Catalog
	store     *crowding.Store
	ranker    *ranking.Ranker
	locations *location.Service
	logger    zerolog.Logger
}

// NewShelterHandler creates a new ShelterHandler. The locations service
// resolves the viewer position when the request carries none.
func NewShelterHandler(catalog *shelter.Catalog, store *crowding.Store, locations *location.Service, logger zerolog.Logger) *ShelterHandler {
	return &ShelterHandler{
		catalog: catalog,
		store:   store,
		ranker: ranking.NewRanker(ranking.RankerConfig{
			Catalog: catalog,
			Logger:  logger,
		}),
		locations: locations,
		logger:    logger.With().Str("handler", "shelter").Logger(),
	}
}

// ListShelters handles GET /v1/shelters - list shelters ordered by distance.
// The viewer position comes from lat/lon query parameters; without them the
// list is ranked from the default downtown Seoul location.
func (h *ShelterHandler) ListShelters(w http.ResponseWriter, r *http.Request) {
	origin, isDefault := h.resolveOrigin(r)
	levelFilter, filtered, ok := parseLevelFilter(r)
	if !ok {
		response.BadRequest(w, r, "invalid crowding level", []models.FieldError{
			{Field: "level", Message: "must be one of RELAXED, NORMAL, BUSY"},
		})
		return
	}
	now := time.Now()
	entries := h.ranker.Recompute(r.Context(), origin)

	summaries := make([]models.ShelterSummary, 0, len(entries))
	for _, e := range entries {
		info := h.crowdingInfo(r, e.Shelter, now)
		if filtered && info.Level != levelFilter.String() {
			continue
		}
		summary := models.ShelterSummary{
			ID:      e.Shelter.ID,
			Name:    e.Shelter.Name,
			Address: e.Shelter.Address,
			Point:   models.Point{Lat: e.Shelter.Coord.Lat, Lon: e.Shelter.Coord.Lon},
		}
		if e.Distance != nil {
			meters := *e.Distance * 1000
			label := geo.FormatDistance(*e.Distance)
			summary.DistanceMeters = &meters
			summary.DistanceLabel = &label
		}
		summary.Crowding = &info
		summaries = append(summaries, summary)
	}

	w.Header().Set("Cache-Control", "private, max-age=30")
	response.JSON(w, r, http.StatusOK, models.ShelterListResponse{
		Origin:          models.Point{Lat: origin.Lat, Lon: origin.Lon},
		OriginIsDefault: isDefault,
		Shelters:        summaries,
		GeneratedAt:     models.Timestamp(now),
	})
}

// GetShelter handles GET /v1/shelters/{shelterId} - shelter detail view.
func (h *ShelterHandler) GetShelter(w http.ResponseWriter, r *http.Request) {
	shelterID := chi.URLParam(r, "shelterId")

	s, err := h.catalog.Get(shelterID)
	if err != nil {
		if errors.Is(err, shelter.ErrShelterNotFound) {
			response.NotFound(w, r, "shelter "+shelterID+" not found")
			return
		}
		response.InternalError(w, r, "failed to load shelter")
		return
	}

	info := h.crowdingInfo(r, *s, time.Now())
	detail := models.ShelterDetail{
		ID:      s.ID,
		Name:    s.Name,
		Address: s.Address,
		Point:   models.Point{Lat: s.Coord.Lat, Lon: s.Coord.Lon},
		Facilities: models.Facilities{
			Wifi:     s.Facilities.Wifi,
			Showers:  s.Facilities.Showers,
			Beds:     s.Facilities.Beds,
			FirstAid: s.Facilities.FirstAid,
		},
		Capacity:       s.Capacity,
		AreaSqm:        s.AreaSqm,
		OperatingHours: s.OperatingHours,
		Remark:         s.Remark,
		Crowding:       &info,
	}

	response.JSON(w, r, http.StatusOK, detail)
}

// resolveOrigin extracts the viewer position from query parameters. Absent
// or unusable parameters fall through to the location service, which serves
// a recent fix or the default downtown position.
func (h *ShelterHandler) resolveOrigin(r *http.Request) (geo.Coordinate, bool) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")
	if latStr == "" || lonStr == "" {
		return h.fallbackOrigin(r)
	}

	lat, latErr := strconv.ParseFloat(latStr, 64)
	lon, lonErr := strconv.ParseFloat(lonStr, 64)
	if latErr != nil || lonErr != nil {
		h.logger.Debug().Str("lat", latStr).Str("lon", lonStr).Msg("unparseable viewer position")
		return h.fallbackOrigin(r)
	}

	coord := geo.Coordinate{Lat: lat, Lon: lon}
	if err := coord.Validate(); err != nil {
		h.logger.Debug().Err(err).Msg("invalid viewer position")
		return h.fallbackOrigin(r)
	}
	return coord, false
}

func (h *ShelterHandler) fallbackOrigin(r *http.Request) (geo.Coordinate, bool) {
	if h.locations == nil {
		return location.Default, true
	}
	fix := h.locations.Resolve(r.Context(), time.Now())
	return fix.Coord, fix.Default
}

// parseLevelFilter reads the optional level query parameter. Returns
// ok=false when the parameter is present but not a known level.
func parseLevelFilter(r *http.Request) (crowding.Level, bool, bool) {
	raw := r.URL.Query().Get("level")
	if raw == "" {
		return crowding.LevelRelaxed, false, true
	}
	level, known := crowding.ParseLevel(raw)
	return level, true, known
}

func (h *ShelterHandler) crowdingInfo(r *http.Request, s shelter.Shelter, now time.Time) models.CrowdingInfo {
	snap := h.store.Snapshot(r.Context(), s.ID, now, s.Capacity)
	return crowdingInfoFromSnapshot(snap)
}
