package main

import (
	"net/http"
)

// HealthResponse reports server and database health
type HealthResponse struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
}

// healthHandler returns server health status
func (rm *RouteManager) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthy := rm.store.IsConnectionHealthy()

	response := HealthResponse{Status: "ok", Database: healthy}
	status := http.StatusOK
	if !healthy {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}
