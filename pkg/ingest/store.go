package ingest

import (
	"context"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// CredentialStore looks up device API keys
type CredentialStore interface {
	// LookupDeviceCredential returns nil and no error when the key is unknown
	LookupDeviceCredential(ctx context.Context, apiKey string) (*models.DeviceCredential, error)
	TouchDeviceCredential(ctx context.Context, id uuid.UUID) error
}

// ReadingStore persists sensor readings
type ReadingStore interface {
	// InsertSensorReading assigns ID and CreatedAt on success
	InsertSensorReading(ctx context.Context, reading *models.SensorReading) error
	// LatestSensorReading returns nil and no error when the community has no readings
	LatestSensorReading(ctx context.Context, communityID string) (*models.SensorReading, error)
}

// AlertStore persists alerts
type AlertStore interface {
	// InsertAlerts stores all alerts in one statement and assigns their IDs
	InsertAlerts(ctx context.Context, alerts []models.Alert) error
}

// Store is everything the coordinator needs from storage
type Store interface {
	CredentialStore
	ReadingStore
	AlertStore
}
