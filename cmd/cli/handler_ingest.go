package main

import (
	"io"
	"net/http"

	"github.com/sguter90/agrimaestro/pkg/api"
	"github.com/sguter90/agrimaestro/pkg/ingest"
	"github.com/sguter90/agrimaestro/pkg/models"
)

const maxIngestBodySize = 64 << 10

// ingestHandler accepts one reading from a field device
func (rm *RouteManager) ingestHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBodySize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(body) > maxIngestBodySize {
		writeError(w, http.StatusBadRequest, "Request body too large")
		return
	}

	result, err := rm.ingester.Ingest(r.Context(), r.Header.Get(api.DeviceKeyHeader), body)
	if err != nil {
		writeError(w, ingest.StatusCode(err), ingest.PublicMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, models.IngestResponse{
		Success: true,
		ID:      result.ReadingID,
		Message: ingest.SuccessMessage,
	})
}
