package main

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/assistant"
	"github.com/sguter90/agrimaestro/pkg/database"
	"github.com/sguter90/agrimaestro/pkg/ingest"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// MockStore is an in-memory Store for handler tests
type MockStore struct {
	users     map[string]mockUser
	readings  []models.SensorReading
	alerts    []models.Alert
	unhealthy bool
	Err       error

	lastReadingParams models.ReadingQueryParams
	lastAlertParams   models.AlertQueryParams
}

type mockUser struct {
	user     models.User
	password string
}

func NewMockStore() *MockStore {
	return &MockStore{users: make(map[string]mockUser)}
}

func (m *MockStore) AddUser(username, password, communityID string) *models.User {
	user := models.User{
		ID:          uuid.New(),
		Username:    username,
		CommunityID: communityID,
		Language:    "english",
		CreatedAt:   time.Now(),
	}
	m.users[username] = mockUser{user: user, password: password}
	return &user
}

func (m *MockStore) ValidateUser(ctx context.Context, username, password string) (*models.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	u, ok := m.users[username]
	if !ok || u.password != password {
		return nil, database.ErrInvalidCredentials
	}
	user := u.user
	return &user, nil
}

func (m *MockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range m.users {
		if u.user.ID == id {
			user := u.user
			return &user, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockStore) LatestSensorReading(ctx context.Context, communityID string) (*models.SensorReading, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := len(m.readings) - 1; i >= 0; i-- {
		if m.readings[i].CommunityID == communityID {
			reading := m.readings[i]
			return &reading, nil
		}
	}
	return nil, nil
}

func (m *MockStore) GetSensorReadings(ctx context.Context, params models.ReadingQueryParams) ([]models.SensorReading, int, error) {
	m.lastReadingParams = params
	if m.Err != nil {
		return nil, 0, m.Err
	}
	var out []models.SensorReading
	for _, r := range m.readings {
		if r.CommunityID == params.CommunityID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *MockStore) GetAlerts(ctx context.Context, params models.AlertQueryParams) ([]models.Alert, int, error) {
	m.lastAlertParams = params
	if m.Err != nil {
		return nil, 0, m.Err
	}
	var out []models.Alert
	for _, a := range m.alerts {
		if a.CommunityID != params.CommunityID {
			continue
		}
		if params.Active != nil && a.IsActive != *params.Active {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *MockStore) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if m.Err != nil {
		return m.Err
	}
	alert.ID = uuid.New()
	alert.CreatedAt = time.Now()
	m.alerts = append(m.alerts, *alert)
	return nil
}

func (m *MockStore) ResolveAlert(ctx context.Context, communityID string, id uuid.UUID) (*models.Alert, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.alerts {
		a := &m.alerts[i]
		if a.ID == id && a.CommunityID == communityID && a.IsActive {
			now := time.Now()
			a.IsActive = false
			a.ResolvedAt = &now
			resolved := *a
			return &resolved, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *MockStore) IsConnectionHealthy() bool {
	return !m.unhealthy
}

// MockIngester returns a fixed result or error
type MockIngester struct {
	Result *ingest.Result
	Err    error

	gotKey  string
	gotBody []byte
}

func (m *MockIngester) Ingest(ctx context.Context, apiKey string, body []byte) (*ingest.Result, error) {
	m.gotKey = apiKey
	m.gotBody = body
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Result, nil
}

// MockAssistant echoes the last message
type MockAssistant struct {
	Err         error
	gotLanguage string
	gotMessages []assistant.Message
}

func (m *MockAssistant) Chat(ctx context.Context, messages []assistant.Message, language string) (*assistant.Reply, error) {
	m.gotLanguage = language
	m.gotMessages = messages
	if m.Err != nil {
		return nil, m.Err
	}
	if len(messages) == 0 {
		return nil, assistant.ErrInvalidMessages
	}
	return &assistant.Reply{
		Message: "echo: " + messages[len(messages)-1].Content,
		Usage:   assistant.Usage{TotalTokens: 10},
	}, nil
}

var errStorage = errors.New("connection refused")
