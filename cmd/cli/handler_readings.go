package main

import (
	"net/http"
	"strconv"

	"github.com/sguter90/agrimaestro/pkg/models"
)

// getLatestReadingHandler returns the newest reading of the caller's community
func (rm *RouteManager) getLatestReadingHandler(w http.ResponseWriter, r *http.Request) {
	communityID, ok := requireCommunity(w, r)
	if !ok {
		return
	}

	reading, err := rm.store.LatestSensorReading(r.Context(), communityID)
	if err != nil {
		rm.logger.Error().Err(err).Str("community", communityID).Msg("❌ Failed to query latest reading")
		writeError(w, http.StatusInternalServerError, "Failed to query readings")
		return
	}
	if reading == nil {
		writeError(w, http.StatusNotFound, "No readings yet")
		return
	}

	writeJSON(w, http.StatusOK, reading)
}

// getReadingsHandler returns a page of readings of the caller's community
// Query params:
//   - start: start time (RFC3339)
//   - end: end time (RFC3339)
//   - limit: max number of results (default: 100, max: 10000)
//   - page: page number starting at 1
//   - order: sort order (asc/desc, default: desc)
func (rm *RouteManager) getReadingsHandler(w http.ResponseWriter, r *http.Request) {
	communityID, ok := requireCommunity(w, r)
	if !ok {
		return
	}

	params := parseReadingQueryParams(r)
	params.CommunityID = communityID

	// Validate parameters
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, total, err := rm.store.GetSensorReadings(r.Context(), params)
	if err != nil {
		rm.logger.Error().Err(err).Str("community", communityID).Msg("❌ Failed to query readings")
		writeError(w, http.StatusInternalServerError, "Failed to query readings")
		return
	}

	if readings == nil {
		readings = []models.SensorReading{}
	}
	writeJSON(w, http.StatusOK, models.NewPagedResponse(readings, total, params.Page, params.Limit))
}

// parseReadingQueryParams extracts and parses query parameters from the request
func parseReadingQueryParams(r *http.Request) models.ReadingQueryParams {
	query := r.URL.Query()
	params := models.ReadingQueryParams{
		StartTime: query.Get("start"),
		EndTime:   query.Get("end"),
		Limit:     100,    // default
		Page:      1,      // default
		Order:     "desc", // default
	}

	// Malformed numbers are kept so Validate can reject them
	if limitStr := query.Get("limit"); limitStr != "" {
		params.Limit = parseIntOr(limitStr, -1)
	}

	if pageStr := query.Get("page"); pageStr != "" {
		params.Page = parseIntOr(pageStr, -1)
	}

	if orderStr := query.Get("order"); orderStr != "" {
		params.Order = orderStr
	}

	return params
}

func parseIntOr(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}
