// Package handler provides HTTP handlers for the Shelter Spot API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shelterspot/shelterspot/internal/api/models"
	"github.com/shelterspot/shelterspot/internal/api/response"
	"github.com/shelterspot/shelterspot/internal/featureflags"
	"github.com/shelterspot/shelterspot/internal/provider/resilience"
	"github.com/shelterspot/shelterspot/internal/shelter"
)

// Pinger verifies connectivity to a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	db        Pinger
	registry  *resilience.Registry
	flags     *featureflags.Service
	catalog   *shelter.Catalog
}

// OpsHandlerConfig holds dependencies for the OpsHandler.
type OpsHandlerConfig struct {
	Version   string
	BuildTime string
	// DB is optional; readiness skips the database check when nil.
	DB       Pinger
	Registry *resilience.Registry
	Flags    *featureflags.Service
	Catalog  *shelter.Catalog
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsHandlerConfig) *OpsHandler {
	return &OpsHandler{
		version:   cfg.Version,
		buildTime: cfg.BuildTime,
		db:        cfg.DB,
		registry:  cfg.Registry,
		flags:     cfg.Flags,
		catalog:   cfg.Catalog,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// Verifies the shelter catalog is loaded and, when configured, that the
// database answers a ping.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if h.catalog == nil || h.catalog.Len() == 0 {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{"catalog": "no shelters loaded"}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			health.Status = models.HealthStatusFail
			health.Details = map[string]interface{}{"database": err.Error()}
			response.JSON(w, r, http.StatusServiceUnavailable, health)
			return
		}
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	now := models.Timestamp(time.Now())
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       now,
		Subsystems: h.subsystemStatuses(r.Context()),
		Providers:  h.providerStatuses(),
	}

	for _, sub := range status.Subsystems {
		if sub.Status == models.HealthStatusFail {
			status.Status = models.HealthStatusDegraded
		}
	}
	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}

	if h.flags != nil {
		for key, flag := range h.flags.GetAllFlags(r.Context()) {
			if flag.BoolValue(false) {
				status.ActiveDegradationFlags = append(status.ActiveDegradationFlags, key)
			}
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystemStatuses(ctx context.Context) []models.SubsystemStatus {
	subsystems := []models.SubsystemStatus{}

	catalogStatus := models.HealthStatusOK
	if h.catalog == nil || h.catalog.Len() == 0 {
		catalogStatus = models.HealthStatusFail
	}
	subsystems = append(subsystems, models.SubsystemStatus{
		Name:   "shelter-catalog",
		Status: catalogStatus,
	})

	if h.db != nil {
		dbStatus := models.HealthStatusOK
		var detail *string
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := h.db.Ping(pingCtx); err != nil {
			dbStatus = models.HealthStatusFail
			msg := err.Error()
			detail = &msg
		}
		subsystems = append(subsystems, models.SubsystemStatus{
			Name:   "database",
			Status: dbStatus,
			Detail: detail,
		})
	}

	return subsystems
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	healths := h.registry.GetAllHealth()
	providers := make([]models.ProviderStatus, 0, len(healths))
	for _, ph := range healths {
		status := models.HealthStatusOK
		switch {
		case ph.IsUnhealthy():
			status = models.HealthStatusFail
		case ph.IsDegraded():
			status = models.HealthStatusDegraded
		}

		p := models.ProviderStatus{
			Provider: ph.Name,
			Status:   status,
		}
		if ph.LastSuccessAt != nil {
			ts := models.Timestamp(*ph.LastSuccessAt)
			p.LastSuccessAt = &ts
		}
		if ph.LastFailureAt != nil {
			ts := models.Timestamp(*ph.LastFailureAt)
			p.LastFailureAt = &ts
		}
		if ph.LastError != "" {
			msg := ph.LastError
			p.Message = &msg
		}
		providers = append(providers, p)
	}
	return providers
}
