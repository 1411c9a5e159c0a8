package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/crowding"
	"github.com/shelterspot/shelterspot/internal/featureflags"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	maintenanceJob   *MaintenanceJob
	store            *crowding.Store
	flags            *featureflags.Service
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	MaintenanceJob   *MaintenanceJob
	CrowdingStore    *crowding.Store
	FeatureFlags     *featureflags.Service
	Logger           zerolog.Logger
}

// JobMessage represents a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Click event fields, set when JobType is "click_recorded".
	ShelterID       string `json:"shelter_id,omitempty"`
	TimestampMillis int64  `json:"timestamp_ms,omitempty"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		maintenanceJob:   cfg.MaintenanceJob,
		store:            cfg.CrowdingStore,
		flags:            cfg.FeatureFlags,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var jobMsg JobMessage
	if err := json.Unmarshal(msg.Data, &jobMsg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch jobMsg.JobType {
	case "click_recorded":
		err = h.handleClickRecorded(ctx, jobMsg)
	case "maintenance":
		err = h.handleMaintenance(ctx)
	case "health_check":
		err = h.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

// handleClickRecorded appends a relayed shelter click to the click log.
// Clicks arrive here when the detail view publishes them asynchronously
// instead of hitting the API directly.
func (h *PubSubHandler) handleClickRecorded(ctx context.Context, msg JobMessage) error {
	if msg.ShelterID == "" {
		return fmt.Errorf("click_recorded message missing shelter_id")
	}
	if h.store == nil {
		return fmt.Errorf("crowding store not configured")
	}

	if h.flags != nil && h.flags.IsClickRecordingDisabled(ctx) {
		h.logger.Debug().Str("shelter_id", msg.ShelterID).
			Msg("click recording disabled, dropping click")
		return nil
	}

	clickedAt := time.Now()
	if msg.TimestampMillis > 0 {
		clickedAt = time.UnixMilli(msg.TimestampMillis)
	}

	h.store.RecordClick(ctx, msg.ShelterID, clickedAt)
	return nil
}

func (h *PubSubHandler) handleMaintenance(ctx context.Context) error {
	h.logger.Info().Msg("starting maintenance run")

	result := h.maintenanceJob.Run(ctx)

	h.logger.Info().
		Dur("duration", result.Duration).
		Bool("compacted", result.Compacted).
		Int("routes_warmed", result.RoutesWarmed).
		Int("failed", result.Failed).
		Msg("maintenance run completed")

	// Consider it successful if more warms succeeded than failed.
	if result.Failed > result.RoutesWarmed {
		return fmt.Errorf("too many warm failures: %d failed, %d warmed", result.Failed, result.RoutesWarmed)
	}

	return nil
}

func (h *PubSubHandler) handleHealthCheck(ctx context.Context) error {
	h.logger.Debug().Msg("running health check")

	// Warm a single origin to verify provider connectivity.
	testPoint := Point{Lat: 37.5666, Lon: 126.9784} // 서울시청

	singleOriginConfig := MaintenanceConfig{
		Targets: []WarmTarget{
			{
				Name:     "health-check",
				Priority: 1,
				Points:   []Point{testPoint},
			},
		},
		Concurrency:      1,
		Timeout:          10 * time.Second,
		CompactClicks:    false, // Health check only probes routing
		WarmRoutes:       true,
		WarmShelterCount: 1,
	}

	healthCheckJob := NewMaintenanceJob(MaintenanceJobConfig{
		Config:         singleOriginConfig,
		Logger:         h.logger,
		RoutingService: h.maintenanceJob.routes,
		Catalog:        h.maintenanceJob.catalog,
	})

	result := healthCheckJob.Run(ctx)

	if result.Failed > 0 {
		return fmt.Errorf("health check failed: %d errors", result.Failed)
	}

	h.logger.Debug().Msg("health check passed")
	return nil
}
