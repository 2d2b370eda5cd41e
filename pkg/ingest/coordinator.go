package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/models"
	"github.com/sguter90/agrimaestro/pkg/rules"
)

// SuccessMessage is returned to devices after a reading was stored
const SuccessMessage = "Sensor data ingested successfully"

// Ingester is the entry point used by the HTTP layer
type Ingester interface {
	Ingest(ctx context.Context, apiKey string, body []byte) (*Result, error)
}

// Result describes a successful ingestion
type Result struct {
	ReadingID  uuid.UUID
	Reading    *models.SensorReading
	Alerts     []models.Alert
	Advisories []models.Alert
}

// Coordinator runs one ingestion request through validation, storage and rule evaluation
type Coordinator struct {
	validator  *Validator
	normalizer *Normalizer
	engine     *rules.Engine
	readings   ReadingStore
	alerts     AlertStore
	publisher  Publisher
	logger     zerolog.Logger
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithPublisher sets the publisher that receives ingest events
func WithPublisher(p Publisher) Option {
	return func(c *Coordinator) {
		if p != nil {
			c.publisher = p
		}
	}
}

// WithClock overrides the clock used for readings without a timestamp
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.normalizer = NewNormalizer(now)
	}
}

// NewCoordinator creates a new Coordinator
func NewCoordinator(store Store, engine *rules.Engine, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		validator:  NewValidator(store, logger),
		normalizer: NewNormalizer(nil),
		engine:     engine,
		readings:   store,
		alerts:     store,
		publisher:  nopPublisher{},
		logger:     logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ingest validates, stores and evaluates one device payload
func (c *Coordinator) Ingest(ctx context.Context, apiKey string, body []byte) (*Result, error) {
	communityID, err := c.validator.Validate(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	reading, err := c.normalizer.Normalize(body, communityID)
	if err != nil {
		return nil, err
	}

	var previous *models.SensorReading
	if c.engine.NeedsHistory() {
		previous, err = c.readings.LatestSensorReading(ctx, communityID)
		if err != nil {
			c.logger.Warn().Err(err).Str("community", communityID).Msg("Failed to load previous reading")
			previous = nil
		}
	}

	if err := c.readings.InsertSensorReading(ctx, reading); err != nil {
		return nil, InternalError("failed to insert sensor data", err)
	}

	evaluation := c.engine.Evaluate(reading, previous)

	// Only stored alerts carry an ID, so only they are published and returned
	stored := evaluation.Alerts
	if len(stored) > 0 {
		if err := c.alerts.InsertAlerts(ctx, stored); err != nil {
			c.logger.Error().Err(err).
				Str("reading", reading.ID.String()).
				Int("alerts", len(stored)).
				Msg("❌ Failed to store alerts")
			stored = nil
		}
	}

	event := models.IngestEvent{
		Reading:    *reading,
		Alerts:     stored,
		Advisories: evaluation.Advisories,
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn().Err(err).Str("reading", reading.ID.String()).Msg("Failed to publish ingest event")
	}

	return &Result{
		ReadingID:  reading.ID,
		Reading:    reading,
		Alerts:     stored,
		Advisories: evaluation.Advisories,
	}, nil
}
