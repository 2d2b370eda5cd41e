package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/sguter90/agrimaestro/pkg/assistant"
	"github.com/sguter90/agrimaestro/pkg/ingest"
	"github.com/sguter90/agrimaestro/pkg/live"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// Store is the part of the database the HTTP handlers use
type Store interface {
	ValidateUser(ctx context.Context, username, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	LatestSensorReading(ctx context.Context, communityID string) (*models.SensorReading, error)
	GetSensorReadings(ctx context.Context, params models.ReadingQueryParams) ([]models.SensorReading, int, error)
	GetAlerts(ctx context.Context, params models.AlertQueryParams) ([]models.Alert, int, error)
	CreateAlert(ctx context.Context, alert *models.Alert) error
	ResolveAlert(ctx context.Context, communityID string, id uuid.UUID) (*models.Alert, error)
	IsConnectionHealthy() bool
}

// ChatAssistant answers dashboard chat messages
type ChatAssistant interface {
	Chat(ctx context.Context, messages []assistant.Message, language string) (*assistant.Reply, error)
}

// RouteManager handles all API routes
type RouteManager struct {
	store     Store
	ingester  ingest.Ingester
	tokens    *TokenManager
	hub       *live.Hub
	assistant ChatAssistant
	origins   []string
	logger    zerolog.Logger
	Router    *mux.Router
}

// RouteOption configures optional RouteManager collaborators
type RouteOption func(*RouteManager)

// WithLiveHub enables the websocket live feed
func WithLiveHub(hub *live.Hub) RouteOption {
	return func(rm *RouteManager) {
		rm.hub = hub
	}
}

// WithAssistant enables the chat endpoint
func WithAssistant(a ChatAssistant) RouteOption {
	return func(rm *RouteManager) {
		rm.assistant = a
	}
}

// WithAllowedOrigins restricts CORS to the given origins; "*" allows every origin
func WithAllowedOrigins(origins []string) RouteOption {
	return func(rm *RouteManager) {
		if len(origins) > 0 {
			rm.origins = origins
		}
	}
}

// NewRouteManager creates a new RouteManager instance
func NewRouteManager(store Store, ingester ingest.Ingester, tokens *TokenManager, logger zerolog.Logger, opts ...RouteOption) *RouteManager {
	rm := &RouteManager{
		store:    store,
		ingester: ingester,
		tokens:   tokens,
		origins:  []string{"*"},
		logger:   logger,
		Router:   mux.NewRouter(),
	}

	for _, opt := range opts {
		opt(rm)
	}

	return rm
}

// Setup configures all API routes
func (rm *RouteManager) Setup() {
	r := rm.Router
	r.Use(rm.accessLogMiddleware)
	r.Use(rm.corsMiddleware)

	// Global OPTIONS handler - catches all preflight requests
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Health check
	r.HandleFunc("/health", rm.healthHandler).Methods(http.MethodGet)

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()
	rm.setupAPIRoutes(api)
}

// setupAPIRoutes configures all API v1 routes
func (rm *RouteManager) setupAPIRoutes(api *mux.Router) {
	// Device ingestion, authenticated by device API key
	api.HandleFunc("/sensor-data-ingestion", rm.ingestHandler).Methods(http.MethodPost)

	// Public auth endpoints (no auth required)
	api.HandleFunc("/auth/login", rm.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", rm.handleLogout).Methods(http.MethodPost)

	// Websocket clients cannot set headers, so the live feed checks its own token
	if rm.hub != nil {
		api.HandleFunc("/live", rm.liveHandler).Methods(http.MethodGet)
	}

	// Protected endpoints (auth required)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(rm.JWTAuthMiddleware)

	// User info
	protected.HandleFunc("/auth/me", rm.handleMe).Methods(http.MethodGet)
	protected.HandleFunc("/auth/refresh", rm.handleRefreshToken).Methods(http.MethodPost)

	// Readings
	protected.HandleFunc("/readings/latest", rm.getLatestReadingHandler).Methods(http.MethodGet)
	protected.HandleFunc("/readings", rm.getReadingsHandler).Methods(http.MethodGet)

	// Alerts
	protected.HandleFunc("/alerts", rm.getAlertsHandler).Methods(http.MethodGet)
	protected.HandleFunc("/alerts", rm.createReportHandler).Methods(http.MethodPost)
	protected.HandleFunc("/alerts/{id}/resolve", rm.resolveAlertHandler).Methods(http.MethodPost)

	// Assistant
	if rm.assistant != nil {
		protected.HandleFunc("/assistant/chat", rm.chatHandler).Methods(http.MethodPost)
	}
}
