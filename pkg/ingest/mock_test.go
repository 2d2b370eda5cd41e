package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// MockStore is an in-memory Store for tests
type MockStore struct {
	mu          sync.Mutex
	credentials map[string]*models.DeviceCredential
	readings    []models.SensorReading
	alerts      []models.Alert
	touched     []uuid.UUID

	alertInserts int

	LookupErr        error
	TouchErr         error
	InsertReadingErr error
	InsertAlertsErr  error
	LatestErr        error
}

func NewMockStore() *MockStore {
	return &MockStore{credentials: make(map[string]*models.DeviceCredential)}
}

func (m *MockStore) AddCredential(apiKey, communityID string, active bool) *models.DeviceCredential {
	cred := &models.DeviceCredential{
		ID:          uuid.New(),
		APIKey:      apiKey,
		CommunityID: communityID,
		IsActive:    active,
		CreatedAt:   time.Now(),
	}
	m.credentials[apiKey] = cred
	return cred
}

func (m *MockStore) LookupDeviceCredential(ctx context.Context, apiKey string) (*models.DeviceCredential, error) {
	if m.LookupErr != nil {
		return nil, m.LookupErr
	}
	cred, ok := m.credentials[apiKey]
	if !ok {
		return nil, nil
	}
	return cred, nil
}

func (m *MockStore) TouchDeviceCredential(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = append(m.touched, id)
	return m.TouchErr
}

func (m *MockStore) InsertSensorReading(ctx context.Context, reading *models.SensorReading) error {
	if m.InsertReadingErr != nil {
		return m.InsertReadingErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	reading.ID = uuid.New()
	reading.CreatedAt = time.Now()
	m.readings = append(m.readings, *reading)
	return nil
}

func (m *MockStore) LatestSensorReading(ctx context.Context, communityID string) (*models.SensorReading, error) {
	if m.LatestErr != nil {
		return nil, m.LatestErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.readings) - 1; i >= 0; i-- {
		if m.readings[i].CommunityID == communityID {
			r := m.readings[i]
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MockStore) InsertAlerts(ctx context.Context, alerts []models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertInserts++
	if m.InsertAlertsErr != nil {
		return m.InsertAlertsErr
	}
	for i := range alerts {
		alerts[i].ID = uuid.New()
		alerts[i].CreatedAt = time.Now()
	}
	m.alerts = append(m.alerts, alerts...)
	return nil
}

func (m *MockStore) ReadingsFor(communityID string) []models.SensorReading {
	var out []models.SensorReading
	for _, r := range m.readings {
		if r.CommunityID == communityID {
			out = append(out, r)
		}
	}
	return out
}

// MockPublisher records published events
type MockPublisher struct {
	Events []models.IngestEvent
	Err    error
}

func (m *MockPublisher) Publish(ctx context.Context, event models.IngestEvent) error {
	m.Events = append(m.Events, event)
	return m.Err
}

var errStorage = errors.New("connection refused")
