package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
)

// AlertsResponse is a page of alerts
type AlertsResponse struct {
	Data       []models.Alert `json:"data"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"total_pages"`
	Limit      int            `json:"limit"`
	HasMore    bool           `json:"has_more"`
}

// ListAlerts returns alerts of the caller's community, newest first
func (c *Client) ListAlerts(ctx context.Context, activeOnly bool, limit int) (*AlertsResponse, error) {
	query := url.Values{}
	if activeOnly {
		query.Set("active", "true")
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/alerts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result AlertsResponse
	if err := c.getJSON(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReportIncident files a manual report
func (c *Client) ReportIncident(ctx context.Context, report models.ManualReport) (*models.Alert, error) {
	var alert models.Alert
	if err := c.getJSON(ctx, http.MethodPost, "/api/v1/alerts", report, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// ResolveAlert marks an alert as resolved
func (c *Client) ResolveAlert(ctx context.Context, id uuid.UUID) (*models.Alert, error) {
	var alert models.Alert
	if err := c.getJSON(ctx, http.MethodPost, "/api/v1/alerts/"+id.String()+"/resolve", nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
