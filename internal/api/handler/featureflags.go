package handler

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/api/models"
	"github.com/shelterspot/shelterspot/internal/api/response"
	"github.com/shelterspot/shelterspot/internal/featureflags"
)

// FeatureFlagsHandler handles feature flag endpoints.
type FeatureFlagsHandler struct {
	service *featureflags.Service
	logger  zerolog.Logger
}

// NewFeatureFlagsHandler creates a new FeatureFlagsHandler.
func NewFeatureFlagsHandler(service *featureflags.Service, logger zerolog.Logger) *FeatureFlagsHandler {
	return &FeatureFlagsHandler{
		service: service,
		logger:  logger.With().Str("handler", "featureflags").Logger(),
	}
}

// ListFeatureFlags handles GET /v1/admin/feature-flags - list all feature flags.
func (h *FeatureFlagsHandler) ListFeatureFlags(w http.ResponseWriter, r *http.Request) {
	flags := h.service.GetAllFlags(r.Context())

	items := make([]featureflags.Flag, 0, len(flags))
	for _, flag := range flags {
		items = append(items, *flag)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })

	response.JSON(w, r, http.StatusOK, featureflags.FlagList{Items: items})
}

// UpsertFeatureFlags handles PUT /v1/admin/feature-flags - update feature flags.
func (h *FeatureFlagsHandler) UpsertFeatureFlags(w http.ResponseWriter, r *http.Request) {
	var input featureflags.FlagUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(input.Updates) == 0 {
		response.BadRequest(w, r, "at least one update is required", []models.FieldError{
			{Field: "updates", Message: "must not be empty"},
		})
		return
	}

	flags := make([]*featureflags.Flag, 0, len(input.Updates))
	for i, update := range input.Updates {
		if update.Key == "" {
			response.BadRequest(w, r, "flag key is required", []models.FieldError{
				{Field: "updates", Message: "missing key at index " + strconv.Itoa(i)},
			})
			return
		}
		flags = append(flags, &featureflags.Flag{Key: update.Key, Value: update.Value})
	}

	if err := h.service.SetFlags(r.Context(), flags); err != nil {
		h.logger.Error().Err(err).Msg("failed to update feature flags")
		response.InternalError(w, r, "failed to update feature flags")
		return
	}

	h.logger.Info().Int("count", len(flags)).Str("reason", input.Reason).Msg("feature flags updated")
	response.NoContent(w, r)
}

// InvalidateCache handles POST /v1/admin/feature-flags/invalidate - invalidate flag cache.
func (h *FeatureFlagsHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	h.service.InvalidateCache()
	response.NoContent(w, r)
}
