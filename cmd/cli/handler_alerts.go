package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sguter90/agrimaestro/pkg/database"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// getAlertsHandler returns alerts of the caller's community, newest first
// Query params:
//   - active: true/false
//   - type: weather, irrigation, soil, pest, other
//   - limit: max number of results (default: 50, max: 1000)
//   - page: page number starting at 1
func (rm *RouteManager) getAlertsHandler(w http.ResponseWriter, r *http.Request) {
	communityID, ok := requireCommunity(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	params := models.AlertQueryParams{
		CommunityID: communityID,
		Type:        models.AlertType(query.Get("type")),
		Limit:       50,
		Page:        1,
	}

	if activeStr := query.Get("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		params.Active = &active
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		params.Limit = parseIntOr(limitStr, -1)
	}
	if pageStr := query.Get("page"); pageStr != "" {
		params.Page = parseIntOr(pageStr, -1)
	}

	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alerts, total, err := rm.store.GetAlerts(r.Context(), params)
	if err != nil {
		rm.logger.Error().Err(err).Str("community", communityID).Msg("❌ Failed to query alerts")
		writeError(w, http.StatusInternalServerError, "Failed to query alerts")
		return
	}

	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusOK, models.NewPagedResponse(alerts, total, params.Page, params.Limit))
}

// createReportHandler files a manual incident report as an alert
func (rm *RouteManager) createReportHandler(w http.ResponseWriter, r *http.Request) {
	communityID, ok := requireCommunity(w, r)
	if !ok {
		return
	}

	var report models.ManualReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := report.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	alert := report.ToAlert(communityID)
	if err := rm.store.CreateAlert(r.Context(), &alert); err != nil {
		rm.logger.Error().Err(err).Str("community", communityID).Msg("❌ Failed to store report")
		writeError(w, http.StatusInternalServerError, "Failed to store report")
		return
	}

	rm.logger.Info().
		Str("community", communityID).
		Str("type", string(alert.Type)).
		Msg("✓ Incident report filed")

	writeJSON(w, http.StatusCreated, alert)
}

// resolveAlertHandler marks an alert of the caller's community as resolved
func (rm *RouteManager) resolveAlertHandler(w http.ResponseWriter, r *http.Request) {
	communityID, ok := requireCommunity(w, r)
	if !ok {
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	alert, err := rm.store.ResolveAlert(r.Context(), communityID, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Alert not found or already resolved")
			return
		}
		rm.logger.Error().Err(err).Str("alert", id.String()).Msg("❌ Failed to resolve alert")
		writeError(w, http.StatusInternalServerError, "Failed to resolve alert")
		return
	}

	writeJSON(w, http.StatusOK, alert)
}
