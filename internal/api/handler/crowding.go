package handler

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/api/models"
	"github.com/shelterspot/shelterspot/internal/api/response"
	"github.com/shelterspot/shelterspot/internal/crowding"
	"github.com/shelterspot/shelterspot/internal/featureflags"
	"github.com/shelterspot/shelterspot/internal/shelter"
)

// CrowdingHandler handles crowding estimation endpoints.
type CrowdingHandler struct {
	catalog *shelter.Catalog
	store   *crowding.Store
	flags   *featureflags.Service
	logger  zerolog.Logger
}

// NewCrowdingHandler creates a new CrowdingHandler.
func NewCrowdingHandler(catalog *shelter.Catalog, store *crowding.Store, flags *featureflags.Service, logger zerolog.Logger) *CrowdingHandler {
	return &CrowdingHandler{
		catalog: catalog,
		store:   store,
		flags:   flags,
		logger:  logger.With().Str("handler", "crowding").Logger(),
	}
}

// RecordClick handles POST /v1/shelters/{shelterId}/clicks - record a
// detail-view click for crowding estimation.
func (h *CrowdingHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
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

	now := time.Now()
	recorded := false
	if h.flags == nil || !h.flags.IsClickRecordingDisabled(r.Context()) {
		h.store.RecordClick(r.Context(), s.ID, now)
		recorded = true
	}

	snap := h.store.Snapshot(r.Context(), s.ID, now, s.Capacity)
	response.JSON(w, r, http.StatusAccepted, models.ClickResponse{
		ShelterID: s.ID,
		Recorded:  recorded,
		Crowding:  crowdingInfoFromSnapshot(snap),
	})
}

// ListCrowding handles GET /v1/crowding - crowding levels for all shelters.
// Shelters without recent clicks report the relaxed level.
func (h *CrowdingHandler) ListCrowding(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	snapshots := h.store.AllSnapshots(r.Context(), now)

	items := make([]models.ShelterCrowding, 0, h.catalog.Len())
	for _, s := range h.catalog.List() {
		snap, ok := snapshots[s.ID]
		if !ok {
			snap = h.store.Snapshot(r.Context(), s.ID, now, s.Capacity)
		}
		items = append(items, models.ShelterCrowding{
			ShelterID: s.ID,
			Crowding:  crowdingInfoFromSnapshot(snap),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ShelterID < items[j].ShelterID })

	w.Header().Set("Cache-Control", "private, max-age=30")
	response.JSON(w, r, http.StatusOK, models.CrowdingListResponse{
		Shelters:    items,
		GeneratedAt: models.Timestamp(now),
	})
}

// CrowdingStats handles GET /v1/crowding/stats - aggregate click statistics.
func (h *CrowdingHandler) CrowdingStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	stats := h.store.Statistics(r.Context(), now)

	response.JSON(w, r, http.StatusOK, models.CrowdingStatsResponse{
		TotalClicks:     stats.TotalClicks,
		TrackedShelters: stats.ActiveShelters,
		BusyShelters:    stats.LevelCounts[crowding.LevelBusy],
		GeneratedAt:     models.Timestamp(now),
	})
}

func crowdingInfoFromSnapshot(snap crowding.Snapshot) models.CrowdingInfo {
	return models.CrowdingInfo{
		Level:        snap.Level.String(),
		Label:        snap.Level.Label(),
		HourlyClicks: snap.HourlyClicks,
		ComputedAt:   models.Timestamp(time.UnixMilli(snap.ComputedAt)),
	}
}
